package mapper

import (
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ArchivedPatternMapper struct{}

func NewArchivedPatternMapper() *ArchivedPatternMapper {
	return &ArchivedPatternMapper{}
}

func (m *ArchivedPatternMapper) ToEntity(p *model.ArchivedPattern) *entity.ArchivedPattern {
	if p == nil {
		return nil
	}
	return &entity.ArchivedPattern{
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
		ArchivedAt:         p.ArchivedAt,
		ArchiveReason:      p.ArchiveReason,
	}
}

func (m *ArchivedPatternMapper) ToModel(e *entity.ArchivedPattern) *model.ArchivedPattern {
	if e == nil {
		return nil
	}
	return &model.ArchivedPattern{
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
		ArchivedAt:         e.ArchivedAt,
		ArchiveReason:      e.ArchiveReason,
	}
}

// FromPattern copies an active pattern into its archive form.
func (m *ArchivedPatternMapper) FromPattern(p *entity.Pattern, reason string) *entity.ArchivedPattern {
	return &entity.ArchivedPattern{
		Id:                 p.Id,
		AgentRole:          p.AgentRole,
		PatternType:        p.PatternType,
		Context:            p.Context,
		Solution:           p.Solution,
		EffectivenessScore: p.EffectivenessScore,
		UsageCount:         p.UsageCount,
		Tags:               p.Tags,
		Embedding:          p.Embedding,
		CreatedAt:          p.CreatedAt,
		ArchiveReason:      reason,
	}
}

// ToPattern restores an archived pattern with its original identity.
func (m *ArchivedPatternMapper) ToPattern(a *entity.ArchivedPattern) *entity.Pattern {
	return &entity.Pattern{
		Id:                 a.Id,
		AgentRole:          a.AgentRole,
		PatternType:        a.PatternType,
		Context:            a.Context,
		Solution:           a.Solution,
		EffectivenessScore: a.EffectivenessScore,
		UsageCount:         a.UsageCount,
		Tags:               a.Tags,
		Embedding:          a.Embedding,
		CreatedAt:          a.CreatedAt,
	}
}
