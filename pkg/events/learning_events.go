package events

import "time"

const (
	TypeCycleCompleted    = "learning.cycle.completed"
	TypePatternsExtracted = "learning.patterns.extracted"
	TypePatternRestored   = "learning.pattern.restored"
)

// NewCycleCompleted announces a finished scheduler cycle to external
// collaborators.
func NewCycleCompleted(cycleType string, durationMs int64, metrics map[string]interface{}) Event {
	return BaseEvent{
		Type: TypeCycleCompleted,
		Data: map[string]interface{}{
			"cycle_type":  cycleType,
			"duration_ms": durationMs,
			"metrics":     metrics,
		},
		OccurredAt: time.Now(),
	}
}

// NewPatternsExtracted announces newly persisted patterns.
func NewPatternsExtracted(count int, agentRoles []string) Event {
	return BaseEvent{
		Type: TypePatternsExtracted,
		Data: map[string]interface{}{
			"count":       count,
			"agent_roles": agentRoles,
		},
		OccurredAt: time.Now(),
	}
}
