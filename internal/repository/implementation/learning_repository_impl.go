package implementation

import (
	"context"

	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/mapper"
	"agent-learning-be/internal/model"
	"agent-learning-be/internal/repository/contract"
	"agent-learning-be/internal/repository/specification"

	"gorm.io/gorm"
)

type LearningMetricRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LearningMapper
}

func NewLearningMetricRepository(db *gorm.DB) contract.LearningMetricRepository {
	return &LearningMetricRepositoryImpl{
		db:     db,
		mapper: mapper.NewLearningMapper(),
	}
}

func (r *LearningMetricRepositoryImpl) Create(ctx context.Context, metric *entity.LearningMetric) error {
	m := r.mapper.MetricToModel(metric)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*metric = *r.mapper.MetricToEntity(m)
	return nil
}

func (r *LearningMetricRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningMetric, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	var models []*model.LearningMetric
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.LearningMetric, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MetricToEntity(m)
	}
	return entities, nil
}

type LearningErrorRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LearningMapper
}

func NewLearningErrorRepository(db *gorm.DB) contract.LearningErrorRepository {
	return &LearningErrorRepositoryImpl{
		db:     db,
		mapper: mapper.NewLearningMapper(),
	}
}

func (r *LearningErrorRepositoryImpl) Create(ctx context.Context, learningError *entity.LearningError) error {
	m := r.mapper.ErrorToModel(learningError)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*learningError = *r.mapper.ErrorToEntity(m)
	return nil
}

func (r *LearningErrorRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningError, error) {
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	var models []*model.LearningError
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.LearningError, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ErrorToEntity(m)
	}
	return entities, nil
}
