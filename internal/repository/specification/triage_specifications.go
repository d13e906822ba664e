package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByUserId scopes a query to one tenant. Every read serving an API request
// must carry it.
type ByUserId struct {
	UserId uuid.UUID
}

func (s ByUserId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserId)
}

// BySessionKey filters triage sessions by their client-facing token.
type BySessionKey struct {
	SessionKey string
}

func (s BySessionKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_key = ?", s.SessionKey)
}

// ByTriageSessionId filters chat messages by their parent session row.
type ByTriageSessionId struct {
	TriageSessionId uuid.UUID
}

func (s ByTriageSessionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("triage_session_id = ?", s.TriageSessionId)
}

// ByDocumentId filters chunks by their parent document.
type ByDocumentId struct {
	DocumentId uuid.UUID
}

func (s ByDocumentId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentId)
}

// ByStatus filters documents by processing status.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// Completed filters triage sessions by completion state.
type Completed struct {
	Value bool
}

func (s Completed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("completed = ?", s.Value)
}
