package dto

import (
	"time"

	"agent-learning-be/internal/entity"
)

// PatternDraft is the input to categorization: a pattern that has text but
// no final type or tags yet.
type PatternDraft struct {
	AgentRole string
	Context   string
	Solution  string
}

type CleanupReport struct {
	Removed  int
	Archived int
	Merged   int
}

// EffectivenessMetrics carries the six factors behind a pattern's score.
type EffectivenessMetrics struct {
	SuccessRate         float64
	AvgQualityScore     float64
	ReworkRate          float64
	ReviewFeedbackScore float64
	TimeToCompletion    float64
	ReusabilityScore    float64
}

type TrendBucket struct {
	Count            int
	AvgEffectiveness float64
}

// PatternTrends is the aggregate view reported by the batch scoring run.
type PatternTrends struct {
	Updated         int
	TopPerformers   []*entity.Pattern
	Underperformers []*entity.Pattern
	MostUsed        []*entity.Pattern
	ByType          map[string]TrendBucket
	ByRole          map[string]TrendBucket
}

// CycleCompletedMessage is published on the in-process bus after every
// scheduler cycle and persisted by the consumer.
type CycleCompletedMessage struct {
	CycleType   string                 `json:"cycle_type"`
	DurationMs  int64                  `json:"duration_ms"`
	Metrics     map[string]interface{} `json:"metrics"`
	CompletedAt time.Time              `json:"completed_at"`
}

type CycleStatus struct {
	Runs        int64
	Errors      int64
	AvgDuration time.Duration
	LastRunAt   *time.Time
}

// SchedulerStatus reports per-cycle counters and the derived health label.
type SchedulerStatus struct {
	Running bool
	Cycles  map[string]CycleStatus
	Health  string
}
