package entity

import (
	"time"

	"github.com/google/uuid"
)

type Pattern struct {
	Id                 uuid.UUID
	AgentRole          string
	PatternType        string
	Context            string
	Solution           string
	EffectivenessScore float64
	UsageCount         int
	Tags               []string
	Embedding          []float32
	SourceWorkItemIds  []uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

type ArchivedPattern struct {
	Id                 uuid.UUID
	AgentRole          string
	PatternType        string
	Context            string
	Solution           string
	EffectivenessScore float64
	UsageCount         int
	Tags               []string
	Embedding          []float32
	CreatedAt          time.Time
	ArchivedAt         time.Time
	ArchiveReason      string
}

type PatternWorkItem struct {
	PatternId  uuid.UUID
	WorkItemId uuid.UUID
}
