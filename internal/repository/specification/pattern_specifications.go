package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByAgentRole filters patterns by the agent role they were learned from
type ByAgentRole struct {
	AgentRole string
}

func (s ByAgentRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("agent_role = ?", s.AgentRole)
}

// ByPatternType filters patterns by type
type ByPatternType struct {
	PatternType string
}

func (s ByPatternType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("pattern_type = ?", s.PatternType)
}

// UsageAtLeast keeps patterns used at least N times
type UsageAtLeast struct {
	Count int
}

func (s UsageAtLeast) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("usage_count >= ?", s.Count)
}

// UsageBelow keeps patterns used fewer than N times
type UsageBelow struct {
	Count int
}

func (s UsageBelow) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("usage_count < ?", s.Count)
}

// EffectivenessBelow keeps patterns scoring under the threshold
type EffectivenessBelow struct {
	Threshold float64
}

func (s EffectivenessBelow) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("effectiveness_score < ?", s.Threshold)
}

// CreatedBefore keeps rows created before the cutoff
type CreatedBefore struct {
	Cutoff time.Time
}

func (s CreatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at < ?", s.Cutoff)
}

// ByStatus filters collaborator rows by status column
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// CompletedSince keeps work items completed at or after the given time
type CompletedSince struct {
	Since time.Time
}

func (s CompletedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("completed_at >= ?", s.Since)
}

// ByArchiveReason filters archived patterns by the reason they were archived
type ByArchiveReason struct {
	Reason string
}

func (s ByArchiveReason) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("archive_reason = ?", s.Reason)
}

// ArchivedBefore keeps archive rows older than the cutoff
type ArchivedBefore struct {
	Cutoff time.Time
}

func (s ArchivedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("archived_at < ?", s.Cutoff)
}
