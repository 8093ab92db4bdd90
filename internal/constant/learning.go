package constant

// Pattern types produced by extraction and categorization.
const (
	PatternTypeSolution      = "solution"
	PatternTypeApproach      = "approach"
	PatternTypeToolUsage     = "tool_usage"
	PatternTypeErrorHandling = "error_handling"
	PatternTypeOptimization  = "optimization"
)

// Learning cycle identifiers, used for metrics and error rows.
const (
	CycleExtraction = "extraction"
	CycleScoring    = "scoring"
	CycleCleanup    = "cleanup"
)

// Work item and review statuses consumed from the work-tracking collaborator.
const (
	WorkItemStatusCompleted = "completed"
	ReviewStatusApproved    = "approved"
	ReviewTypeArchitecture  = "architecture"
	DecisionStatusAccepted  = "accepted"
)

// Health labels derived from cycle error rates.
const (
	HealthExcellent = "excellent"
	HealthGood      = "good"
	HealthFair      = "fair"
	HealthPoor      = "poor"
	HealthUnknown   = "unknown"
)

// PatternTypes lists every valid pattern type.
var PatternTypes = []string{
	PatternTypeSolution,
	PatternTypeApproach,
	PatternTypeToolUsage,
	PatternTypeErrorHandling,
	PatternTypeOptimization,
}
