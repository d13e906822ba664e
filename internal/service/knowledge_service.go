package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"medicore-triage-be/internal/dto"
	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/pkg/logger"
	"medicore-triage-be/internal/repository/specification"
	"medicore-triage-be/internal/repository/unitofwork"
	"medicore-triage-be/pkg/embedding"
	"medicore-triage-be/pkg/llm"
	"medicore-triage-be/pkg/rag/prompt"
	"medicore-triage-be/pkg/rag/response"
	"medicore-triage-be/pkg/rag/vectorindex"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("document has no text content")
)

const askTimeout = 60 * time.Second

var supportedFileTypes = map[string]string{
	".txt": "txt",
	".md":  "md",
}

// IKnowledgeService manages the tenant knowledge base: document lifecycle
// and question answering over the stored chunks.
type IKnowledgeService interface {
	Upload(ctx context.Context, userId uuid.UUID, filename string, content []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentItemResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error
	Ask(ctx context.Context, userId uuid.UUID, request *dto.AskRequest) (*dto.AskResponse, error)
}

type knowledgeService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	llmProvider       llm.LLMProvider
	index             *vectorindex.Index
	logger            logger.ILogger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	index *vectorindex.Index,
	appLogger logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		index:             index,
		logger:            appLogger,
	}
}

// Upload stores the document and queues it for ingestion. Chunking and
// embedding happen asynchronously; the document stays in "processing" until
// the consumer finishes.
func (s *knowledgeService) Upload(ctx context.Context, userId uuid.UUID, filename string, content []byte) (*dto.UploadDocumentResponse, error) {
	fileType, ok := supportedFileTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, ErrUnsupportedFileType
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, ErrEmptyDocument
	}

	doc := &entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Filename:  filename,
		FileType:  fileType,
		Content:   text,
		Status:    entity.DocumentStatusProcessing,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(dto.IngestDocumentMessage{DocumentId: doc.Id})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Error("KnowledgeService", "Failed to queue document for ingestion", map[string]interface{}{
			"document_id": doc.Id,
			"error":       err.Error(),
		})
		return nil, err
	}

	s.logger.Info("KnowledgeService", "Document uploaded", map[string]interface{}{
		"document_id": doc.Id,
		"user_id":     userId,
		"filename":    filename,
	})

	return &dto.UploadDocumentResponse{
		Id:       doc.Id,
		Filename: doc.Filename,
		Status:   doc.Status,
	}, nil
}

func (s *knowledgeService) List(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByUserId{UserId: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.DocumentItemResponse, len(docs))
	for i, doc := range docs {
		items[i] = &dto.DocumentItemResponse{
			Id:         doc.Id,
			Filename:   doc.Filename,
			FileType:   doc.FileType,
			Status:     doc.Status,
			ChunkCount: doc.ChunkCount,
			CreatedAt:  doc.CreatedAt,
			UpdatedAt:  doc.UpdatedAt,
		}
	}
	return items, nil
}

// Delete removes the document, its stored chunks, and its entries in the
// in-memory index.
func (s *knowledgeService) Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.ByUserId{UserId: userId},
	)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, documentId); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, documentId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	removed := s.index.RemoveBySource(userId.String(), documentId.String())
	s.logger.Info("KnowledgeService", "Document deleted", map[string]interface{}{
		"document_id":    documentId,
		"chunks_removed": removed,
	})
	return nil
}

// Ask answers a free-form question against the tenant's documents using the
// pgvector-backed similarity search.
func (s *knowledgeService) Ask(ctx context.Context, userId uuid.UUID, request *dto.AskRequest) (*dto.AskResponse, error) {
	res, err := s.embeddingProvider.Generate(request.Question, embedding.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilar(ctx, res.Embedding.Values, 5, userId)
	if err != nil {
		return nil, err
	}

	var parts []string
	sources := make([]dto.AskSourceDTO, 0, len(scored))
	filenames := map[uuid.UUID]string{}
	for _, sc := range scored {
		parts = append(parts, sc.Chunk.Content)

		filename, ok := filenames[sc.Chunk.DocumentId]
		if !ok {
			doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: sc.Chunk.DocumentId})
			if err == nil && doc != nil {
				filename = doc.Filename
			}
			filenames[sc.Chunk.DocumentId] = filename
		}

		sources = append(sources, dto.AskSourceDTO{
			DocumentId: sc.Chunk.DocumentId,
			Filename:   filename,
			ChunkIndex: sc.Chunk.ChunkIndex,
			Similarity: sc.Similarity,
		})
	}

	builtPrompt := prompt.NewQuestionBuilder(strings.Join(parts, "\n\n"), request.Question).Build()

	askCtx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()

	answer, err := s.llmProvider.Generate(askCtx, builtPrompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &dto.AskResponse{
		Answer:  response.StripMarkdown(answer),
		Sources: sources,
	}, nil
}
