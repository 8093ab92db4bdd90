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

type PatternRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PatternMapper
}

func NewPatternRepository(db *gorm.DB) contract.PatternRepository {
	return &PatternRepositoryImpl{
		db:     db,
		mapper: mapper.NewPatternMapper(),
	}
}

func (r *PatternRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PatternRepositoryImpl) Create(ctx context.Context, pattern *entity.Pattern) error {
	m := r.mapper.ToModel(pattern)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*pattern = *r.mapper.ToEntity(m)
	return nil
}

func (r *PatternRepositoryImpl) Update(ctx context.Context, pattern *entity.Pattern) error {
	m := r.mapper.ToModel(pattern)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*pattern = *r.mapper.ToEntity(m)
	return nil
}

func (r *PatternRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Pattern{}, id).Error
}

func (r *PatternRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Pattern, error) {
	var m model.Pattern
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PatternRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Pattern, error) {
	var models []*model.Pattern
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PatternRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Pattern{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PatternRepositoryImpl) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Pattern{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

func (r *PatternRepositoryImpl) UpdateEffectiveness(ctx context.Context, id uuid.UUID, score float64) error {
	return r.db.WithContext(ctx).
		Model(&model.Pattern{}).
		Where("id = ?", id).
		Update("effectiveness_score", score).Error
}
