package contract

import (
	"context"

	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/repository/specification"
)

type LearningMetricRepository interface {
	Create(ctx context.Context, metric *entity.LearningMetric) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningMetric, error)
}

type LearningErrorRepository interface {
	Create(ctx context.Context, learningError *entity.LearningError) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningError, error)
}
