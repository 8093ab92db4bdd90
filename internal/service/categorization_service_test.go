package service

import (
	"context"
	"testing"

	"agent-learning-be/internal/constant"
	"agent-learning-be/internal/dto"
	"agent-learning-be/internal/entity"
	"agent-learning-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMatchSignature(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		solution string
		want     string
	}{
		{
			name:     "solution work",
			context:  "feature: Add user login\nImplement the login flow",
			solution: "Implemented and added session handling, fixed redirect",
			want:     constant.PatternTypeSolution,
		},
		{
			name:     "error handling",
			context:  "Error encountered in bug: API timed out. The request failed repeatedly",
			solution: "Caught the timeout exception and retried with a fallback",
			want:     constant.PatternTypeErrorHandling,
		},
		{
			name:     "tool usage",
			context:  "Tool usage for task: set up CI",
			solution: "Ran the docker command using the build script",
			want:     constant.PatternTypeToolUsage,
		},
		{
			name:     "optimization",
			context:  "Slow dashboard performance bottleneck",
			solution: "Optimized queries and cached results, reduced latency",
			want:     constant.PatternTypeOptimization,
		},
		{
			name:     "approach",
			context:  "Design a layered architecture plan for the service",
			solution: "Adopted a modular layered approach with clean structure",
			want:     constant.PatternTypeApproach,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := matchSignature(tt.context, tt.solution)
			assert.True(t, matched)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchSignatureBelowThreshold(t *testing.T) {
	_, matched := matchSignature("Discussed the weather", "It was sunny outside")
	assert.False(t, matched)
}

func TestCategorizeRejectsEmptyDraft(t *testing.T) {
	svc := NewCategorizationService(fakeUowFactory{uow: newFakeUow()}, embedding.NewHashProvider(), nopLogger{})

	_, err := svc.Categorize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Categorize(context.Background(), &dto.PatternDraft{Context: "only context"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCategorizeFallsBackToNeighborVote(t *testing.T) {
	provider := embedding.NewHashProvider()
	uow := newFakeUow()

	// A stored pattern with near-identical text but a vocabulary that never
	// trips any rule signature.
	text := "align the weekly summary cadence with the reporting calendar"
	vec, err := provider.Generate(text + " " + text)
	assert.NoError(t, err)
	uow.patterns.patterns = append(uow.patterns.patterns, &entity.Pattern{
		Id:          uuid.New(),
		AgentRole:   "planner",
		PatternType: constant.PatternTypeApproach,
		Embedding:   vec,
	})

	svc := NewCategorizationService(fakeUowFactory{uow: uow}, provider, nopLogger{})

	got, err := svc.Categorize(context.Background(), &dto.PatternDraft{
		AgentRole: "planner",
		Context:   text,
		Solution:  text,
	})
	assert.NoError(t, err)
	assert.Equal(t, constant.PatternTypeApproach, got)
}

func TestCategorizeDefaultsToSolutionWithoutNeighbors(t *testing.T) {
	svc := NewCategorizationService(fakeUowFactory{uow: newFakeUow()}, embedding.NewHashProvider(), nopLogger{})

	got, err := svc.Categorize(context.Background(), &dto.PatternDraft{
		AgentRole: "planner",
		Context:   "align the weekly summary cadence",
		Solution:  "match the reporting calendar",
	})
	assert.NoError(t, err)
	assert.Equal(t, constant.PatternTypeSolution, got)
}

func TestGenerateTags(t *testing.T) {
	svc := &categorizationService{}

	tags := svc.GenerateTags(
		constant.PatternTypeSolution,
		"Add JWT auth to the REST API",
		"Implemented token validation on every endpoint with tests",
	)
	assert.Equal(t, constant.PatternTypeSolution, tags[0])
	assert.Contains(t, tags, "security")
	assert.Contains(t, tags, "api")
	assert.Contains(t, tags, "testing")
	assert.NotContains(t, tags, "containerization")

	// Lexicon tags come out in stable sorted order after the type.
	assert.Equal(t, []string{constant.PatternTypeSolution, "api", "security", "testing"}, tags)
}

func TestGenerateTagsTypeOnly(t *testing.T) {
	svc := &categorizationService{}
	tags := svc.GenerateTags(constant.PatternTypeApproach, "plan the rollout", "stagger it")
	assert.Equal(t, []string{constant.PatternTypeApproach}, tags)
}
