package mapper

import (
	"encoding/json"

	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/model"
)

type WorkItemMapper struct{}

func NewWorkItemMapper() *WorkItemMapper {
	return &WorkItemMapper{}
}

func (m *WorkItemMapper) ToEntity(w *model.WorkItem) *entity.WorkItem {
	if w == nil {
		return nil
	}
	return &entity.WorkItem{
		Id:          w.Id,
		Type:        w.Type,
		Title:       w.Title,
		Description: w.Description,
		Status:      w.Status,
		CreatedAt:   w.CreatedAt,
		CompletedAt: w.CompletedAt,
	}
}

func (m *WorkItemMapper) ResultToEntity(r *model.WorkItemResult) *entity.WorkItemResult {
	if r == nil {
		return nil
	}
	var files []string
	if len(r.FilesChanged) > 0 {
		// Malformed JSON is treated as no files; the column is collaborator-owned.
		_ = json.Unmarshal(r.FilesChanged, &files)
	}
	return &entity.WorkItemResult{
		AgentRole:           r.AgentRole,
		ImplementationNotes: r.ImplementationNotes,
		FilesChanged:        files,
		TestsAdded:          r.TestsAdded,
		Success:             r.Success,
		ErrorMessage:        r.ErrorMessage,
	}
}

func (m *WorkItemMapper) ReviewToEntity(r *model.WorkItemReview) *entity.WorkItemReview {
	if r == nil {
		return nil
	}
	var suggestions []string
	if len(r.Suggestions) > 0 {
		_ = json.Unmarshal(r.Suggestions, &suggestions)
	}
	return &entity.WorkItemReview{
		Type:         r.Type,
		Status:       r.Status,
		Feedback:     r.Feedback,
		Suggestions:  suggestions,
		QualityScore: r.QualityScore,
	}
}

func (m *WorkItemMapper) DecisionToEntity(d *model.ArchitectureDecision) *entity.ArchitectureDecision {
	if d == nil {
		return nil
	}
	return &entity.ArchitectureDecision{
		Id:           d.Id,
		Status:       d.Status,
		Title:        d.Title,
		Context:      d.Context,
		Decision:     d.Decision,
		Consequences: d.Consequences,
		CreatedAt:    d.CreatedAt,
	}
}
