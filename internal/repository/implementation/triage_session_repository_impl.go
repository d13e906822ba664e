package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/mapper"
	"medicore-triage-be/internal/model"
	"medicore-triage-be/internal/repository/contract"
	"medicore-triage-be/internal/repository/specification"
)

type TriageSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TriageMapper
}

func NewTriageSessionRepository(db *gorm.DB) contract.TriageSessionRepository {
	return &TriageSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTriageMapper(),
	}
}

func (r *TriageSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TriageSessionRepositoryImpl) Create(ctx context.Context, session *entity.TriageSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *TriageSessionRepositoryImpl) Update(ctx context.Context, session *entity.TriageSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *TriageSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.TriageSession{}, id).Error
}

func (r *TriageSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TriageSession, error) {
	var m model.TriageSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *TriageSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TriageSession, error) {
	var models []*model.TriageSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TriageSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *TriageSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TriageSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
