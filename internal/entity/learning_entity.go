package entity

import (
	"time"

	"github.com/google/uuid"
)

type LearningMetric struct {
	Id        uuid.UUID
	CycleType string
	Metrics   map[string]interface{}
	CreatedAt time.Time
}

type LearningError struct {
	Id           uuid.UUID
	CycleType    string
	ErrorMessage string
	StackTrace   string
	CreatedAt    time.Time
}
