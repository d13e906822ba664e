package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document processing states.
const (
	DocumentStatusProcessing = "processing"
	DocumentStatusReady      = "ready"
	DocumentStatusFailed     = "failed"
)

// Document is one uploaded knowledge-base file owned by a single user. The
// extracted text is chunked and embedded asynchronously; Status tracks that
// pipeline.
type Document struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Filename   string
	FileType   string
	Content    string // extracted plain text
	Status     string
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
