package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"medicore-triage-be/internal/dto"
	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/pkg/logger"
	"medicore-triage-be/internal/repository/memory"
	"medicore-triage-be/internal/repository/specification"
	"medicore-triage-be/internal/repository/unitofwork"
	"medicore-triage-be/pkg/events"
	"medicore-triage-be/pkg/llm"
	ragcontext "medicore-triage-be/pkg/rag/context"
	"medicore-triage-be/pkg/rag/prompt"
	"medicore-triage-be/pkg/rag/response"
	"medicore-triage-be/pkg/triage"
)

var ErrSessionNotFound = errors.New("session not found")

const generationTimeout = 60 * time.Second

// ITriageService defines the triage conversation service interface
type ITriageService interface {
	Chat(ctx context.Context, userId uuid.UUID, request *dto.ChatRequest) (*dto.ChatResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionKey string) (*dto.ChatHistoryResponse, error)
}

// IEventPublisher publishes lifecycle events on the bus. Satisfied by the
// NATS publisher.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type triageService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessionRepo    *memory.SessionRepository
	machine        *triage.Machine
	assembler      *ragcontext.Assembler
	llmProvider    llm.LLMProvider
	eventPublisher IEventPublisher
	logger         logger.ILogger
}

func NewTriageService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *memory.SessionRepository,
	assembler *ragcontext.Assembler,
	llmProvider llm.LLMProvider,
	eventPublisher IEventPublisher,
	appLogger logger.ILogger,
) ITriageService {
	machine := triage.NewMachine(triage.NewEmergencyDetector(), initTriageLogger())

	return &triageService{
		uowFactory:     uowFactory,
		sessionRepo:    sessionRepo,
		machine:        machine,
		assembler:      assembler,
		llmProvider:    llmProvider,
		eventPublisher: eventPublisher,
		logger:         appLogger,
	}
}

func initTriageLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "triage.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[TRIAGE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// Chat processes one conversation turn. Stage transitions happen under the
// per-session lock; the generation pipeline for the final assessment runs
// with the lock released, then commits its outcome under the lock again.
func (s *triageService) Chat(ctx context.Context, userId uuid.UUID, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	sessionKey := request.SessionId
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	unlock := s.sessionRepo.Lock(sessionKey)

	session, err := s.loadOrCreateSession(ctx, userId, sessionKey, request.SessionId == "")
	if err != nil {
		unlock()
		return nil, err
	}

	alreadyFlagged := session.RedFlagsDetected
	result := s.machine.Process(session, request.Message)
	s.sessionRepo.Save(session)
	snapshot := *session
	unlock()

	if result.NeedsAssessment {
		assessment, failed := s.generateAssessment(ctx, &snapshot, userId)

		unlock = s.sessionRepo.Lock(sessionKey)
		result = s.machine.CommitAssessment(session, assessment, failed)
		s.sessionRepo.Save(session)
		snapshot = *session
		unlock()

		s.publishEvent(ctx, events.TypeTriageCompleted, map[string]interface{}{
			"session_key": sessionKey,
			"user_id":     userId,
			"red_flags":   snapshot.RedFlagsDetected,
		})
	}

	// Only the turn that raised the red flag emits the emergency event;
	// later messages to the flagged session stay quiet.
	if snapshot.RedFlagsDetected && !alreadyFlagged {
		s.publishEvent(ctx, events.TypeEmergencyDetected, map[string]interface{}{
			"session_key": sessionKey,
			"user_id":     userId,
			"stage":       snapshot.Stage.String(),
		})
	}

	if err := s.persistTurn(ctx, userId, &snapshot, request.Message, result.Reply); err != nil {
		s.logger.Error("TriageService", "Failed to persist turn", map[string]interface{}{
			"session_key": sessionKey,
			"error":       err.Error(),
		})
		return nil, err
	}

	return &dto.ChatResponse{
		SessionId:     sessionKey,
		Reply:         result.Reply,
		Finished:      snapshot.Completed,
		Stage:         snapshot.Stage.String(),
		Progress:      fmt.Sprintf("%d/%d", snapshot.Stage.Step(), triage.TotalSteps),
		ExtractedInfo: buildExtractedInfo(&snapshot),
	}, nil
}

// loadOrCreateSession resolves the live session, rehydrating from the
// database when the in-memory copy aged out. Callers hold the session lock.
func (s *triageService) loadOrCreateSession(ctx context.Context, userId uuid.UUID, sessionKey string, isNew bool) (*triage.Session, error) {
	if isNew {
		session := triage.NewSession(sessionKey, userId.String())
		s.sessionRepo.Save(session)
		return session, nil
	}

	if session, found := s.sessionRepo.Get(sessionKey); found {
		if session.TenantID != userId.String() {
			return nil, ErrSessionNotFound
		}
		return session, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.TriageSessionRepository().FindOne(ctx,
		specification.BySessionKey{SessionKey: sessionKey},
		specification.ByUserId{UserId: userId},
	)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrSessionNotFound
	}

	stage, ok := triage.ParseStage(row.Stage)
	if !ok {
		stage = triage.StageGreeting
	}
	session := &triage.Session{
		ID:               sessionKey,
		TenantID:         userId.String(),
		Stage:            stage,
		Fields:           row.Fields,
		RedFlagsDetected: row.RedFlagsDetected,
		Completed:        row.Completed,
		CreatedAt:        row.CreatedAt,
	}
	s.sessionRepo.Save(session)
	return session, nil
}

// generateAssessment runs the retrieval and generation pipeline. A retrieval
// failure degrades to an assessment without document context; a generation
// failure reports failed=true and the caller falls back.
func (s *triageService) generateAssessment(ctx context.Context, snapshot *triage.Session, userId uuid.UUID) (string, bool) {
	knowledgeContext, err := s.assembler.Assemble(snapshot.SymptomQuery(), userId.String())
	if err != nil {
		s.logger.Warn("TriageService", "Context assembly failed, generating without document context", map[string]interface{}{
			"session_key": snapshot.ID,
			"error":       err.Error(),
		})
		knowledgeContext = ""
	}

	builtPrompt := prompt.NewBuilder(snapshot.Summary(), knowledgeContext).Build()

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	raw, err := s.llmProvider.Generate(genCtx, builtPrompt,
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(1500),
	)
	if err != nil {
		s.logger.Error("TriageService", "Assessment generation failed", map[string]interface{}{
			"session_key": snapshot.ID,
			"error":       err.Error(),
		})
		return "", true
	}

	return response.CleanAssessment(raw), false
}

// persistTurn writes the session snapshot and both turn messages in one
// transaction. A write failure fails the whole turn.
func (s *triageService) persistTurn(ctx context.Context, userId uuid.UUID, snapshot *triage.Session, userMessage, reply string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	row, err := uow.TriageSessionRepository().FindOne(ctx,
		specification.BySessionKey{SessionKey: snapshot.ID},
		specification.ByUserId{UserId: userId},
	)
	if err != nil {
		return err
	}

	now := time.Now()
	if row == nil {
		row = &entity.TriageSession{
			Id:               uuid.New(),
			SessionKey:       snapshot.ID,
			UserId:           userId,
			Stage:            snapshot.Stage.String(),
			Fields:           snapshot.Fields,
			RedFlagsDetected: snapshot.RedFlagsDetected,
			Completed:        snapshot.Completed,
			CreatedAt:        snapshot.CreatedAt,
		}
		if err := uow.TriageSessionRepository().Create(ctx, row); err != nil {
			return err
		}
	} else {
		row.Stage = snapshot.Stage.String()
		row.Fields = snapshot.Fields
		row.RedFlagsDetected = snapshot.RedFlagsDetected
		row.Completed = snapshot.Completed
		row.UpdatedAt = &now
		if err := uow.TriageSessionRepository().Update(ctx, row); err != nil {
			return err
		}
	}

	userMsg := &entity.ChatMessage{
		Id:              uuid.New(),
		TriageSessionId: row.Id,
		Role:            "user",
		Content:         userMessage,
		Stage:           snapshot.Stage.String(),
		CreatedAt:       now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return err
	}

	assistantMsg := &entity.ChatMessage{
		Id:              uuid.New(),
		TriageSessionId: row.Id,
		Role:            "assistant",
		Content:         reply,
		Stage:           snapshot.Stage.String(),
		CreatedAt:       now.Add(time.Millisecond),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMsg); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *triageService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("TriageService", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func buildExtractedInfo(snapshot *triage.Session) dto.ExtractedInfo {
	fields := map[string]string{}
	if snapshot.Fields.Consent {
		fields["consent"] = "yes"
	}
	if snapshot.Fields.Age != nil {
		fields["age"] = strconv.Itoa(*snapshot.Fields.Age)
	}
	if snapshot.Fields.Sex != "" {
		fields["sex"] = snapshot.Fields.Sex
	}
	if snapshot.Fields.MedicalHistory != "" {
		fields["medical_history"] = snapshot.Fields.MedicalHistory
	}
	if snapshot.Fields.MainSymptoms != "" {
		fields["main_symptoms"] = snapshot.Fields.MainSymptoms
	}
	if snapshot.Fields.SymptomDetails != "" {
		fields["symptom_details"] = snapshot.Fields.SymptomDetails
	}
	if snapshot.Fields.AssociatedSymptoms != "" {
		fields["associated_symptoms"] = snapshot.Fields.AssociatedSymptoms
	}

	return dto.ExtractedInfo{
		Fields:    fields,
		RedFlags:  snapshot.RedFlagsDetected,
		Timestamp: time.Now(),
	}
}

// GetHistory returns the persisted transcript for one session.
func (s *triageService) GetHistory(ctx context.Context, userId uuid.UUID, sessionKey string) (*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	row, err := uow.TriageSessionRepository().FindOne(ctx,
		specification.BySessionKey{SessionKey: sessionKey},
		specification.ByUserId{UserId: userId},
	)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrSessionNotFound
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByTriageSessionId{TriageSessionId: row.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ChatHistoryMessage, len(messages))
	for i, msg := range messages {
		items[i] = dto.ChatHistoryMessage{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Stage:     msg.Stage,
			CreatedAt: msg.CreatedAt,
		}
	}

	return &dto.ChatHistoryResponse{
		SessionId: sessionKey,
		Stage:     row.Stage,
		Completed: row.Completed,
		Messages:  items,
	}, nil
}
