package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/repository/contract"
	"medicore-triage-be/internal/repository/specification"
	"medicore-triage-be/internal/repository/unitofwork"
	"medicore-triage-be/pkg/embedding"
	"medicore-triage-be/pkg/events"
	"medicore-triage-be/pkg/llm"
)

// fakeStore is shared in-memory state behind the fake unit of work, so every
// uow handed out by the factory sees the same rows.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.TriageSession
	messages []*entity.ChatMessage
	docs     map[uuid.UUID]*entity.Document
	chunks   []*entity.DocumentChunk

	scoredResults []*contract.ScoredDocumentChunk

	failSessionWrites bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[uuid.UUID]*entity.TriageSession{},
		docs:     map[uuid.UUID]*entity.Document{},
	}
}

type fakeUowFactory struct {
	store *fakeStore
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) TriageSessionRepository() contract.TriageSessionRepository {
	return &fakeTriageSessionRepo{store: u.store}
}

func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeChatMessageRepo{store: u.store}
}

func (u *fakeUow) DocumentRepository() contract.DocumentRepository {
	return &fakeDocumentRepo{store: u.store}
}

func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeDocumentChunkRepo{store: u.store}
}

func matchSession(s *entity.TriageSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.BySessionKey:
			if s.SessionKey != v.SessionKey {
				return false
			}
		case specification.ByUserId:
			if s.UserId != v.UserId {
				return false
			}
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		}
	}
	return true
}

type fakeTriageSessionRepo struct {
	store *fakeStore
}

func (r *fakeTriageSessionRepo) Create(ctx context.Context, session *entity.TriageSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failSessionWrites {
		return errors.New("write failed")
	}
	copied := *session
	r.store.sessions[session.Id] = &copied
	return nil
}

func (r *fakeTriageSessionRepo) Update(ctx context.Context, session *entity.TriageSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failSessionWrites {
		return errors.New("write failed")
	}
	copied := *session
	r.store.sessions[session.Id] = &copied
	return nil
}

func (r *fakeTriageSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.sessions, id)
	return nil
}

func (r *fakeTriageSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TriageSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTriageSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TriageSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.TriageSession
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTriageSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, _ := r.FindAll(ctx, specs...)
	return int64(len(rows)), nil
}

type fakeChatMessageRepo struct {
	store *fakeStore
}

func (r *fakeChatMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *message
	r.store.messages = append(r.store.messages, &copied)
	return nil
}

func (r *fakeChatMessageRepo) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var kept []*entity.ChatMessage
	for _, m := range r.store.messages {
		if m.TriageSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}

func (r *fakeChatMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		matched := true
		for _, spec := range specs {
			if v, ok := spec.(specification.ByTriageSessionId); ok && m.TriageSessionId != v.TriageSessionId {
				matched = false
			}
		}
		if matched {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeChatMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, _ := r.FindAll(ctx, specs...)
	return int64(len(rows)), nil
}

type fakeDocumentRepo struct {
	store *fakeStore
}

func matchDocument(d *entity.Document, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if d.Id != v.ID {
				return false
			}
		case specification.ByUserId:
			if d.UserId != v.UserId {
				return false
			}
		case specification.ByStatus:
			if d.Status != v.Status {
				return false
			}
		}
	}
	return true
}

func (r *fakeDocumentRepo) Create(ctx context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *document
	r.store.docs[document.Id] = &copied
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, document *entity.Document) error {
	return r.Create(ctx, document)
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.docs, id)
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, d := range r.store.docs {
		if matchDocument(d, specs) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.store.docs {
		if matchDocument(d, specs) {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, _ := r.FindAll(ctx, specs...)
	return int64(len(rows)), nil
}

type fakeDocumentChunkRepo struct {
	store *fakeStore
}

func (r *fakeDocumentChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range chunks {
		copied := *c
		r.store.chunks = append(r.store.chunks, &copied)
	}
	return nil
}

func (r *fakeDocumentChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var kept []*entity.DocumentChunk
	for _, c := range r.store.chunks {
		if c.DocumentId != documentId {
			kept = append(kept, c)
		}
	}
	r.store.chunks = kept
	return nil
}

func (r *fakeDocumentChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.DocumentChunk
	for _, c := range r.store.chunks {
		matched := true
		for _, spec := range specs {
			if v, ok := spec.(specification.ByDocumentId); ok && c.DocumentId != v.DocumentId {
				matched = false
			}
		}
		if matched {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeDocumentChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, _ := r.FindAll(ctx, specs...)
	return int64(len(rows)), nil
}

func (r *fakeDocumentChunkRepo) SearchSimilar(ctx context.Context, emb []float32, limit int, userId uuid.UUID) ([]*contract.ScoredDocumentChunk, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.scoredResults, nil
}

// fakeLLM echoes a fixed reply and records the prompts it saw.
type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeEventBus records published lifecycle events.
type fakeEventBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeEventBus) Publish(ctx context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventBus) byType(eventType string) []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []events.Event
	for _, e := range f.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeEmbedder returns the same unit vector for every input.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}},
	}, nil
}

// nopLogger satisfies logger.ILogger without output.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
