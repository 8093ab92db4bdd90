package mapper

import (
	"encoding/json"
	"time"

	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type PatternMapper struct{}

func NewPatternMapper() *PatternMapper {
	return &PatternMapper{}
}

func (m *PatternMapper) ToEntity(p *model.Pattern) *entity.Pattern {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Pattern{
		Id:                 p.Id,
		AgentRole:          p.AgentRole,
		PatternType:        p.PatternType,
		Context:            p.Context,
		Solution:           p.Solution,
		EffectivenessScore: p.EffectivenessScore,
		UsageCount:         p.UsageCount,
		Tags:               jsonToStrings(p.Tags),
		Embedding:          p.Embedding.Slice(),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *PatternMapper) ToModel(e *entity.Pattern) *model.Pattern {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.Pattern{
		Id:                 e.Id,
		AgentRole:          e.AgentRole,
		PatternType:        e.PatternType,
		Context:            e.Context,
		Solution:           e.Solution,
		EffectivenessScore: e.EffectivenessScore,
		UsageCount:         e.UsageCount,
		Tags:               stringsToJSON(e.Tags),
		Embedding:          pgvector.NewVector(e.Embedding),
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *PatternMapper) ToEntities(patterns []*model.Pattern) []*entity.Pattern {
	entities := make([]*entity.Pattern, len(patterns))
	for i, p := range patterns {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

func jsonToStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func stringsToJSON(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
