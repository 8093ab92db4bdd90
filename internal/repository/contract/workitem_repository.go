package contract

import (
	"context"
	"time"

	"agent-learning-be/internal/entity"

	"github.com/google/uuid"
)

// WorkItemRepository is the read-only contract against the work-tracking
// collaborator's tables.
type WorkItemRepository interface {
	// FindCompleted returns completed-and-successful work items joined to
	// their latest result and review, optionally bounded to a start time.
	FindCompleted(ctx context.Context, since *time.Time) ([]*entity.CompletedWorkItem, error)

	// FindPatternOutcomes returns one outcome per work item linked to the
	// pattern, ordered by completion time descending, with attempt counts.
	FindPatternOutcomes(ctx context.Context, patternId uuid.UUID) ([]*entity.PatternOutcome, error)
}

type ArchitectureDecisionRepository interface {
	FindAccepted(ctx context.Context, limit int) ([]*entity.ArchitectureDecision, error)
}

// ReviewRepository serves approved reviews for retrieval: reviews left on
// work by the given agent role, plus all architecture-type reviews.
type ReviewRepository interface {
	FindApproved(ctx context.Context, agentRole string, limit int) ([]*entity.WorkItemReview, error)
}
