package contract

import (
	"context"

	"github.com/google/uuid"

	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/repository/specification"
)

// ScoredDocumentChunk pairs a chunk with its cosine similarity to a query.
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilar ranks the tenant's chunks by cosine similarity to the
	// query embedding. Tenant filtering happens in SQL, not post-hoc.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*ScoredDocumentChunk, error)
}
