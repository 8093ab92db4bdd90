package mapper

import (
	"encoding/json"

	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/model"

	"gorm.io/datatypes"
)

type LearningMapper struct{}

func NewLearningMapper() *LearningMapper {
	return &LearningMapper{}
}

func (m *LearningMapper) MetricToEntity(r *model.LearningMetric) *entity.LearningMetric {
	if r == nil {
		return nil
	}
	metrics := map[string]interface{}{}
	if len(r.Metrics) > 0 {
		_ = json.Unmarshal(r.Metrics, &metrics)
	}
	return &entity.LearningMetric{
		Id:        r.Id,
		CycleType: r.CycleType,
		Metrics:   metrics,
		CreatedAt: r.CreatedAt,
	}
}

func (m *LearningMapper) MetricToModel(e *entity.LearningMetric) *model.LearningMetric {
	if e == nil {
		return nil
	}
	raw, err := json.Marshal(e.Metrics)
	if err != nil {
		raw = []byte("{}")
	}
	return &model.LearningMetric{
		Id:        e.Id,
		CycleType: e.CycleType,
		Metrics:   datatypes.JSON(raw),
		CreatedAt: e.CreatedAt,
	}
}

func (m *LearningMapper) ErrorToEntity(r *model.LearningError) *entity.LearningError {
	if r == nil {
		return nil
	}
	return &entity.LearningError{
		Id:           r.Id,
		CycleType:    r.CycleType,
		ErrorMessage: r.ErrorMessage,
		StackTrace:   r.StackTrace,
		CreatedAt:    r.CreatedAt,
	}
}

func (m *LearningMapper) ErrorToModel(e *entity.LearningError) *model.LearningError {
	if e == nil {
		return nil
	}
	return &model.LearningError{
		Id:           e.Id,
		CycleType:    e.CycleType,
		ErrorMessage: e.ErrorMessage,
		StackTrace:   e.StackTrace,
		CreatedAt:    e.CreatedAt,
	}
}
