package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LearningMetric struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CycleType string         `gorm:"index;not null"`
	Metrics   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
}

func (LearningMetric) TableName() string {
	return "learning_metrics"
}

type LearningError struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CycleType    string    `gorm:"index;not null"`
	ErrorMessage string    `gorm:"type:text"`
	StackTrace   string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
}

func (LearningError) TableName() string {
	return "learning_errors"
}
