package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Pattern struct {
	Id                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Context            string          `gorm:"type:text;not null"`
	Solution           string          `gorm:"type:text;not null"`
	PatternType        string          `gorm:"index;not null"`
	AgentRole          string          `gorm:"index;not null"`
	EffectivenessScore float64         `gorm:"default:0.5"`
	UsageCount         int             `gorm:"default:0"`
	Embedding          pgvector.Vector `gorm:"type:vector(256)"`
	Tags               datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt          time.Time       `gorm:"autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime"`
}

func (Pattern) TableName() string {
	return "patterns"
}

type PatternWorkItem struct {
	PatternId  uuid.UUID `gorm:"type:uuid;primaryKey"`
	WorkItemId uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (PatternWorkItem) TableName() string {
	return "pattern_work_items"
}

type ArchivedPattern struct {
	Id                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Context            string          `gorm:"type:text;not null"`
	Solution           string          `gorm:"type:text;not null"`
	PatternType        string          `gorm:"index;not null"`
	AgentRole          string          `gorm:"index;not null"`
	EffectivenessScore float64         `gorm:"default:0"`
	UsageCount         int             `gorm:"default:0"`
	Embedding          pgvector.Vector `gorm:"type:vector(256)"`
	Tags               datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt          time.Time
	ArchivedAt         time.Time `gorm:"autoCreateTime"`
	ArchiveReason      string
}

func (ArchivedPattern) TableName() string {
	return "archived_patterns"
}
