package entity

import (
	"time"

	"github.com/google/uuid"
)

// Read-only projections of the work-tracking collaborator's data.
// Nothing in this module mutates them.

type WorkItem struct {
	Id          uuid.UUID
	Type        string
	Title       string
	Description string
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type WorkItemResult struct {
	AgentRole           string
	ImplementationNotes string
	FilesChanged        []string
	TestsAdded          bool
	Success             bool
	ErrorMessage        string
}

type WorkItemReview struct {
	Type         string
	Status       string
	Feedback     string
	Suggestions  []string
	QualityScore float64
}

// CompletedWorkItem is a work item joined to its latest result and review.
type CompletedWorkItem struct {
	WorkItem
	Result *WorkItemResult
	Review *WorkItemReview
}

// PatternOutcome is one application of a pattern: the linked work item's
// completion joined to its result and review, with the attempt count.
type PatternOutcome struct {
	WorkItemId   uuid.UUID
	Success      bool
	QualityScore float64
	HasReview    bool
	Attempts     int
	Feedback     string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

type ArchitectureDecision struct {
	Id           uuid.UUID
	Status       string
	Title        string
	Context      string
	Decision     string
	Consequences string
	CreatedAt    time.Time
}
