package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agent-learning-be/internal/constant"
	"agent-learning-be/internal/dto"
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newRetrievalFixture() (*fakeUow, IRetrievalService) {
	uow := newFakeUow()
	svc := NewRetrievalService(
		fakeUowFactory{uow: uow},
		memory.NewContextCache(10, time.Minute),
		nopLogger{},
	)
	return uow, svc
}

func jwtTask() *dto.TaskContext {
	return &dto.TaskContext{
		AgentRole:       "developer",
		WorkItemId:      uuid.New(),
		WorkItemType:    "feature",
		TaskDescription: "Implement JWT authentication for the API",
	}
}

func TestCalculateRelevanceScoreRange(t *testing.T) {
	task := jwtTask()

	texts := []string{
		"",
		"nothing related here at all",
		"Implemented JWT authentication with token refresh on every api endpoint",
		"jwt jwt jwt authentication authentication api implement",
	}
	for _, text := range texts {
		score := calculateRelevanceScore(task, text)
		assert.GreaterOrEqual(t, score, 0.0, text)
		assert.LessOrEqual(t, score, 1.0, text)
	}
}

func TestCalculateRelevanceScoreDomainPair(t *testing.T) {
	task := jwtTask()

	// No shared keywords, but the auth domain pair still connects them.
	score := calculateRelevanceScore(task, "Configured token session validation")
	assert.Greater(t, score, 0.25)

	// Same keyword overlap without domain vocabulary scores lower.
	unrelated := calculateRelevanceScore(task, "Configured build caching")
	assert.Less(t, unrelated, score)
}

func TestCalculateRelevanceScoreMonotonicInKeywords(t *testing.T) {
	task := &dto.TaskContext{
		AgentRole:       "developer",
		TaskDescription: "improve database migration tooling",
	}

	one := calculateRelevanceScore(task, "notes about migration work")
	two := calculateRelevanceScore(task, "notes about database migration work")
	assert.Greater(t, two, one)
}

func TestTaskKeywords(t *testing.T) {
	keywords := taskKeywords("Implement the JWT authentication, for our API!")
	assert.Equal(t, []string{"implement", "jwt", "authentication", "api"}, keywords)

	assert.Empty(t, taskKeywords("to do it"))
}

func TestRetrieveContextValidatesInput(t *testing.T) {
	_, svc := newRetrievalFixture()

	_, err := svc.RetrieveContext(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RetrieveContext(context.Background(), &dto.TaskContext{AgentRole: "developer"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRetrieveContextRanksAndCounts(t *testing.T) {
	uow, svc := newRetrievalFixture()

	relevant := &entity.Pattern{
		Id:                 uuid.New(),
		AgentRole:          "developer",
		PatternType:        constant.PatternTypeSolution,
		Context:            "feature: JWT authentication for the api",
		Solution:           "Implement jwt token middleware with session checks",
		EffectivenessScore: 0.8,
	}
	irrelevant := &entity.Pattern{
		Id:          uuid.New(),
		AgentRole:   "developer",
		PatternType: constant.PatternTypeSolution,
		Context:     "chore: tidy changelog formatting",
		Solution:    "Reordered the changelog sections",
	}
	uow.patterns.patterns = []*entity.Pattern{irrelevant, relevant}
	uow.decisions.decisions = []*entity.ArchitectureDecision{
		{
			Id:       uuid.New(),
			Status:   constant.DecisionStatusAccepted,
			Title:    "Use JWT for service authentication",
			Context:  "api security",
			Decision: "All services validate jwt tokens at the gateway",
		},
	}
	uow.reviews.reviews = []*entity.WorkItemReview{
		{Type: "code", Status: constant.ReviewStatusApproved, Feedback: "jwt authentication handling is solid, api coverage is good"},
	}

	bundle, err := svc.RetrieveContext(context.Background(), jwtTask(), nil)
	assert.NoError(t, err)

	assert.Len(t, bundle.Patterns, 1)
	assert.Equal(t, relevant.Id, bundle.Patterns[0].Pattern.Id)
	assert.Len(t, bundle.Decisions, 1)
	assert.Len(t, bundle.Reviews, 1)

	// Surfacing the pattern counted as one use; the filtered one untouched.
	assert.Equal(t, 1, uow.patterns.usageBumps[relevant.Id])
	assert.Zero(t, uow.patterns.usageBumps[irrelevant.Id])
}

func TestRetrieveContextServesFromCache(t *testing.T) {
	uow, svc := newRetrievalFixture()
	relevant := &entity.Pattern{
		Id:                 uuid.New(),
		AgentRole:          "developer",
		Context:            "feature: JWT authentication for the api",
		Solution:           "Implement jwt token middleware",
		EffectivenessScore: 0.8,
	}
	uow.patterns.patterns = []*entity.Pattern{relevant}

	task := jwtTask()
	first, err := svc.RetrieveContext(context.Background(), task, nil)
	assert.NoError(t, err)

	second, err := svc.RetrieveContext(context.Background(), task, nil)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	// The cached call never re-queried, so usage stays at one.
	assert.Equal(t, 1, uow.patterns.usageBumps[relevant.Id])
	assert.Equal(t, int64(1), svc.CacheStats().Hits)
}

func TestRetrieveContextDegradesOnStoreFailure(t *testing.T) {
	uow, svc := newRetrievalFixture()
	uow.patterns.failFindAll = errors.New("connection reset")

	bundle, err := svc.RetrieveContext(context.Background(), jwtTask(), nil)
	assert.NoError(t, err)
	assert.True(t, bundle.Empty())
}

func TestFormatForPrompt(t *testing.T) {
	_, svc := newRetrievalFixture()

	assert.Equal(t, "", svc.FormatForPrompt(&dto.ContextBundle{}))

	bundle := &dto.ContextBundle{
		Patterns: []dto.ScoredPattern{
			{
				Pattern: &entity.Pattern{
					PatternType:        constant.PatternTypeSolution,
					Context:            "feature: JWT auth\nwith details below",
					Solution:           "Validate tokens at the gateway",
					EffectivenessScore: 0.82,
					UsageCount:         4,
				},
				Relevance: 0.91,
			},
		},
		Decisions: []dto.ScoredDecision{
			{
				Decision:  &entity.ArchitectureDecision{Title: "Use JWT", Decision: "Gateway validates tokens"},
				Relevance: 0.75,
			},
		},
		Reviews: []dto.ScoredReview{
			{
				Review:    &entity.WorkItemReview{Type: "code", Feedback: "token handling is solid"},
				Relevance: 0.6,
			},
		},
	}

	out := svc.FormatForPrompt(bundle)
	assert.Contains(t, out, "# Relevant Context from Previous Work")
	assert.Contains(t, out, "## Learned Patterns")
	assert.Contains(t, out, "### [solution] feature: JWT auth")
	assert.NotContains(t, out, "with details below")
	assert.Contains(t, out, "(relevance 0.91, effectiveness 0.82, used 4 times)")
	assert.Contains(t, out, "## Architecture Decisions")
	assert.Contains(t, out, "### Use JWT")
	assert.Contains(t, out, "## Review Guidance")
	assert.Contains(t, out, "- [code] token handling is solid (relevance 0.60)")
}
