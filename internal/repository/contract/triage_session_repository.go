package contract

import (
	"context"

	"github.com/google/uuid"

	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/repository/specification"
)

type TriageSessionRepository interface {
	Create(ctx context.Context, session *entity.TriageSession) error
	Update(ctx context.Context, session *entity.TriageSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TriageSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TriageSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
