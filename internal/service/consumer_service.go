package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"medicore-triage-be/internal/dto"
	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/pkg/logger"
	"medicore-triage-be/internal/repository/specification"
	"medicore-triage-be/internal/repository/unitofwork"
	"medicore-triage-be/pkg/embedding"
	"medicore-triage-be/pkg/events"
	pktNats "medicore-triage-be/pkg/nats"
	"medicore-triage-be/pkg/rag/vectorindex"
	"medicore-triage-be/pkg/utils"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the document ingestion worker. It turns an uploaded
// document into embedded chunks: split, embed, replace the stored chunks in
// one transaction, then refresh the in-memory index.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	index             *vectorindex.Index
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	index *vectorindex.Index,
	eventPublisher *pktNats.Publisher,
	appLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		index:             index,
		eventPublisher:    eventPublisher,
		logger:            appLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ConsumerService", "Processing document ingestion", map[string]interface{}{"document_id": payload.DocumentId})

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to fetch document", map[string]interface{}{"document_id": payload.DocumentId, "error": err.Error()})
		msg.Nack() // Retriable
		return
	}
	if doc == nil {
		cs.logger.Warn("ConsumerService", "Document not found, skipping", map[string]interface{}{"document_id": payload.DocumentId})
		msg.Ack() // Document deleted? Ack.
		return
	}

	texts := utils.SplitText(doc.Content, utils.DefaultChunkSize, utils.DefaultChunkOverlap)
	cs.logger.Info("ConsumerService", "Document split", map[string]interface{}{"document_id": doc.Id, "chunks": len(texts)})

	vectors, err := embedding.GenerateBatch(cs.embeddingProvider, texts, embedding.TaskTypeDocument)
	if err != nil {
		// Provider errors are not retried indefinitely; mark the document
		// failed so the tenant can re-upload.
		cs.logger.Error("ConsumerService", "Embedding generation failed", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		cs.markFailed(ctx, doc)
		msg.Ack()
		return
	}

	now := time.Now()
	chunkEntities := make([]*entity.DocumentChunk, len(texts))
	indexChunks := make([]vectorindex.Chunk, len(texts))
	for i, text := range texts {
		id := uuid.New()
		chunkEntities[i] = &entity.DocumentChunk{
			Id:             id,
			DocumentId:     doc.Id,
			UserId:         doc.UserId,
			Content:        text,
			EmbeddingValue: vectors[i],
			ChunkIndex:     i,
			CreatedAt:      now,
		}
		indexChunks[i] = vectorindex.Chunk{
			ID:         id.String(),
			TenantID:   doc.UserId.String(),
			Source:     doc.Id.String(),
			ChunkIndex: i,
			Content:    text,
			Embedding:  vectors[i],
		}
	}

	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("ConsumerService", "Failed to begin transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		cs.logger.Error("ConsumerService", "Failed to delete old chunks", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		msg.Nack()
		return
	}

	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunkEntities); err != nil {
		cs.logger.Error("ConsumerService", "Failed to create chunks", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		msg.Nack()
		return
	}

	doc.Status = entity.DocumentStatusReady
	doc.ChunkCount = len(chunkEntities)
	doc.UpdatedAt = &now
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		cs.logger.Error("ConsumerService", "Failed to update document status", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error("ConsumerService", "Failed to commit transaction", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		msg.Nack()
		return
	}

	// Refresh the in-memory index after the transaction committed.
	cs.index.RemoveBySource(doc.UserId.String(), doc.Id.String())
	if err := cs.index.Add(indexChunks); err != nil {
		cs.logger.Error("ConsumerService", "Failed to add chunks to index", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
	}

	cs.publishEvent(ctx, events.TypeDocumentIngested, map[string]interface{}{
		"document_id": doc.Id,
		"user_id":     doc.UserId,
		"filename":    doc.Filename,
		"chunk_count": doc.ChunkCount,
	})

	cs.logger.Info("ConsumerService", "Document processed", map[string]interface{}{"document_id": doc.Id, "chunks": len(chunkEntities)})
	msg.Ack()
}

func (cs *consumerService) markFailed(ctx context.Context, doc *entity.Document) {
	now := time.Now()
	doc.Status = entity.DocumentStatusFailed
	doc.UpdatedAt = &now

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		cs.logger.Error("ConsumerService", "Failed to mark document failed", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
	}

	cs.publishEvent(ctx, events.TypeDocumentIngestFailed, map[string]interface{}{
		"document_id": doc.Id,
		"user_id":     doc.UserId,
		"filename":    doc.Filename,
	})
}

func (cs *consumerService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if cs.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
