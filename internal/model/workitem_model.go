package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Read-side models for tables owned by the work-tracking collaborator.
// The learning engine only selects from them; cmd/migrate creates minimal
// versions so the engine can run against an empty development database.

type WorkItem struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type        string    `gorm:"index"`
	Title       string
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	CompletedAt *time.Time
}

func (WorkItem) TableName() string {
	return "work_items"
}

type WorkItemResult struct {
	Id                  uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkItemId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	AgentRole           string         `gorm:"index"`
	ImplementationNotes string         `gorm:"type:text"`
	FilesChanged        datatypes.JSON `gorm:"type:jsonb"`
	TestsAdded          bool
	Success             bool
	ErrorMessage        string         `gorm:"type:text"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
}

func (WorkItemResult) TableName() string {
	return "work_item_results"
}

type WorkItemReview struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkItemId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type         string         `gorm:"index"`
	Status       string         `gorm:"index"`
	Feedback     string         `gorm:"type:text"`
	Suggestions  datatypes.JSON `gorm:"type:jsonb"`
	QualityScore float64
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (WorkItemReview) TableName() string {
	return "work_item_reviews"
}

type ArchitectureDecision struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status       string    `gorm:"index"`
	Title        string
	Context      string    `gorm:"type:text"`
	Decision     string    `gorm:"type:text"`
	Consequences string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (ArchitectureDecision) TableName() string {
	return "architecture_decisions"
}
