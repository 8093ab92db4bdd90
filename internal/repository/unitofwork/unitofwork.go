package unitofwork

import (
	"context"

	"agent-learning-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PatternRepository() contract.PatternRepository
	PatternWorkItemRepository() contract.PatternWorkItemRepository
	ArchivedPatternRepository() contract.ArchivedPatternRepository
	LearningMetricRepository() contract.LearningMetricRepository
	LearningErrorRepository() contract.LearningErrorRepository

	// Read-only collaborator contracts
	WorkItemRepository() contract.WorkItemRepository
	ArchitectureDecisionRepository() contract.ArchitectureDecisionRepository
	ReviewRepository() contract.ReviewRepository
}
