package contract

import (
	"context"

	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PatternRepository interface {
	Create(ctx context.Context, pattern *entity.Pattern) error
	Update(ctx context.Context, pattern *entity.Pattern) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Pattern, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Pattern, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// IncrementUsage bumps usage_count by one in a single statement so
	// concurrent retrievals cannot lose updates.
	IncrementUsage(ctx context.Context, id uuid.UUID) error

	// UpdateEffectiveness writes the score for one pattern id.
	UpdateEffectiveness(ctx context.Context, id uuid.UUID, score float64) error
}

type PatternWorkItemRepository interface {
	// Link records an association, ignoring duplicates.
	Link(ctx context.Context, patternId, workItemId uuid.UUID) error
	LinkBulk(ctx context.Context, patternId uuid.UUID, workItemIds []uuid.UUID) error
	DeleteByPatternId(ctx context.Context, patternId uuid.UUID) error
	FindWorkItemIds(ctx context.Context, patternId uuid.UUID) ([]uuid.UUID, error)
	CountByPatternId(ctx context.Context, patternId uuid.UUID) (int64, error)

	// Retarget moves every link from one pattern to another without
	// creating duplicates on the target.
	Retarget(ctx context.Context, fromPatternId, toPatternId uuid.UUID) error
}

type ArchivedPatternRepository interface {
	Create(ctx context.Context, archived *entity.ArchivedPattern) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ArchivedPattern, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArchivedPattern, error)
}
