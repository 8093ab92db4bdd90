package dto

import (
	"agent-learning-be/internal/entity"

	"github.com/google/uuid"
)

// TaskContext describes the live task asking for historical context.
type TaskContext struct {
	AgentRole       string
	WorkItemId      uuid.UUID
	WorkItemType    string
	TaskDescription string
}

// RetrieveOptions tunes the retrieval ranking.
type RetrieveOptions struct {
	MaxResults         int
	MinScore           float64
	BoostEffectiveness bool
}

type ScoredPattern struct {
	Pattern   *entity.Pattern
	Relevance float64
}

type ScoredDecision struct {
	Decision  *entity.ArchitectureDecision
	Relevance float64
}

type ScoredReview struct {
	Review    *entity.WorkItemReview
	Relevance float64
}

// ContextBundle is the ranked knowledge served back into agent prompts.
type ContextBundle struct {
	Patterns  []ScoredPattern
	Decisions []ScoredDecision
	Reviews   []ScoredReview
}

func (b *ContextBundle) Empty() bool {
	return b == nil || (len(b.Patterns) == 0 && len(b.Decisions) == 0 && len(b.Reviews) == 0)
}

type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	HitRate   float64
}
