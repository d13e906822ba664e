package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is the retrieval unit: a bounded span of document text with
// its embedding. UserId is denormalized from the parent document so tenant
// filtering never needs a join.
type DocumentChunk struct {
	Id             uuid.UUID
	DocumentId     uuid.UUID
	UserId         uuid.UUID
	Content        string
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
