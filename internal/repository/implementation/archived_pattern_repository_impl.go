package implementation

import (
	"context"
	"errors"

	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/mapper"
	"agent-learning-be/internal/model"
	"agent-learning-be/internal/repository/contract"
	"agent-learning-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ArchivedPatternRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArchivedPatternMapper
}

func NewArchivedPatternRepository(db *gorm.DB) contract.ArchivedPatternRepository {
	return &ArchivedPatternRepositoryImpl{
		db:     db,
		mapper: mapper.NewArchivedPatternMapper(),
	}
}

func (r *ArchivedPatternRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ArchivedPatternRepositoryImpl) Create(ctx context.Context, archived *entity.ArchivedPattern) error {
	m := r.mapper.ToModel(archived)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*archived = *r.mapper.ToEntity(m)
	return nil
}

func (r *ArchivedPatternRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ArchivedPattern{}, id).Error
}

func (r *ArchivedPatternRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ArchivedPattern, error) {
	var m model.ArchivedPattern
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ArchivedPatternRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArchivedPattern, error) {
	var models []*model.ArchivedPattern
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ArchivedPattern, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
