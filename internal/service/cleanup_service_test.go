package service

import (
	"context"
	"testing"
	"time"

	"agent-learning-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newCleanupFixture() (*fakeUow, ICleanupService) {
	uow := newFakeUow()
	svc := NewCleanupService(fakeUowFactory{uow: uow}, nopLogger{}, 90*24*time.Hour, 3)
	return uow, svc
}

func TestHasRecentSuccess(t *testing.T) {
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	old := time.Now().Add(-60 * 24 * time.Hour)

	assert.False(t, hasRecentSuccess(nil, cutoff))
	assert.False(t, hasRecentSuccess([]*entity.PatternOutcome{
		{Success: false, CompletedAt: &recent},
		{Success: true, CompletedAt: &old},
		{Success: true, CompletedAt: nil},
	}, cutoff))
	assert.True(t, hasRecentSuccess([]*entity.PatternOutcome{
		{Success: true, CompletedAt: &recent},
	}, cutoff))
}

func TestMergeRank(t *testing.T) {
	effective := &entity.Pattern{EffectivenessScore: 0.9, UsageCount: 0}
	popular := &entity.Pattern{EffectivenessScore: 0.5, UsageCount: 100}

	assert.InDelta(t, 0.63, mergeRank(effective), 1e-9)
	assert.InDelta(t, 0.65, mergeRank(popular), 1e-9)
	assert.Greater(t, mergeRank(popular), mergeRank(effective))
}

func TestDuplicateGroups(t *testing.T) {
	same := []float32{1, 0, 0}
	near := []float32{0.99, 0.14, 0} // cosine vs same ≈ 0.990
	other := []float32{0, 1, 0}

	a := &entity.Pattern{Id: uuid.New(), Embedding: same}
	b := &entity.Pattern{Id: uuid.New(), Embedding: near}
	c := &entity.Pattern{Id: uuid.New(), Embedding: other}

	groups := duplicateGroups([]*entity.Pattern{a, b, c})
	assert.Len(t, groups, 1)
	assert.Len(t, groups[0], 2)
}

func TestCleanupCycleRemovesIneffective(t *testing.T) {
	uow, svc := newCleanupFixture()

	stale := &entity.Pattern{
		Id:                 uuid.New(),
		EffectivenessScore: 0.2,
		UsageCount:         1,
		CreatedAt:          time.Now().Add(-60 * 24 * time.Hour),
	}
	rescued := &entity.Pattern{
		Id:                 uuid.New(),
		EffectivenessScore: 0.2,
		UsageCount:         1,
		CreatedAt:          time.Now().Add(-60 * 24 * time.Hour),
	}
	healthy := &entity.Pattern{
		Id:                 uuid.New(),
		EffectivenessScore: 0.9,
		UsageCount:         10,
		CreatedAt:          time.Now().Add(-60 * 24 * time.Hour),
	}
	uow.patterns.patterns = []*entity.Pattern{stale, rescued, healthy}
	uow.links.links[stale.Id] = []uuid.UUID{uuid.New()}

	recent := time.Now().Add(-time.Hour)
	uow.workItems.outcomes[rescued.Id] = []*entity.PatternOutcome{
		{Success: true, CompletedAt: &recent},
	}

	report, err := svc.CleanupCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Removed)

	remaining, _ := uow.patterns.FindAll(context.Background())
	assert.Len(t, remaining, 2)
	assert.Empty(t, uow.links.links[stale.Id])
}

func TestCleanupCycleArchivesOld(t *testing.T) {
	uow, svc := newCleanupFixture()

	aged := &entity.Pattern{
		Id:                 uuid.New(),
		AgentRole:          "developer",
		EffectivenessScore: 0.4,
		UsageCount:         2,
		CreatedAt:          time.Now().Add(-120 * 24 * time.Hour),
	}
	uow.patterns.patterns = []*entity.Pattern{aged}
	// Above the ineffective score cutoff, so only the archive sweep fires.

	report, err := svc.CleanupCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, 1, report.Archived)

	assert.Len(t, uow.archive.archived, 1)
	archived := uow.archive.archived[0]
	assert.Equal(t, aged.Id, archived.Id)
	assert.Equal(t, "Age and low usage", archived.ArchiveReason)

	remaining, _ := uow.patterns.FindAll(context.Background())
	assert.Empty(t, remaining)
}

func TestCleanupCycleMergesDuplicates(t *testing.T) {
	uow, svc := newCleanupFixture()

	vec := []float32{0.5, 0.5, 0}
	survivor := &entity.Pattern{
		Id:                 uuid.New(),
		Context:            "short",
		Solution:           "the much longer solution text wins",
		EffectivenessScore: 0.9,
		UsageCount:         10,
		CreatedAt:          time.Now(),
		Embedding:          vec,
	}
	loser := &entity.Pattern{
		Id:                 uuid.New(),
		Context:            "a noticeably longer context survives the merge",
		Solution:           "short",
		EffectivenessScore: 0.4,
		UsageCount:         4,
		CreatedAt:          time.Now(),
		Embedding:          vec,
	}
	uow.patterns.patterns = []*entity.Pattern{survivor, loser}
	linked := uuid.New()
	uow.links.links[loser.Id] = []uuid.UUID{linked}

	report, err := svc.CleanupCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Merged)

	remaining, _ := uow.patterns.FindAll(context.Background())
	assert.Len(t, remaining, 1)
	merged := remaining[0]
	assert.Equal(t, survivor.Id, merged.Id)
	assert.Equal(t, 14, merged.UsageCount)
	assert.Equal(t, "a noticeably longer context survives the merge", merged.Context)
	assert.Equal(t, "the much longer solution text wins", merged.Solution)

	// Links moved to the survivor.
	assert.Equal(t, []uuid.UUID{linked}, uow.links.links[survivor.Id])
	assert.Empty(t, uow.links.links[loser.Id])
}

func TestRestorePattern(t *testing.T) {
	uow, svc := newCleanupFixture()

	_, err := svc.RestorePattern(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrArchiveNotFound)

	id := uuid.New()
	uow.archive.archived = []*entity.ArchivedPattern{
		{
			Id:                 id,
			AgentRole:          "developer",
			Context:            "archived context",
			Solution:           "archived solution",
			EffectivenessScore: 0.45,
			UsageCount:         2,
			ArchivedAt:         time.Now(),
			ArchiveReason:      "Age and low usage",
		},
	}

	restored, err := svc.RestorePattern(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, id, restored.Id)
	assert.Equal(t, "archived context", restored.Context)

	assert.Empty(t, uow.archive.archived)
	found, _ := uow.patterns.FindOne(context.Background())
	assert.Equal(t, id, found.Id)
}

func TestListArchivedFilters(t *testing.T) {
	uow, svc := newCleanupFixture()

	old := time.Now().Add(-48 * time.Hour)
	uow.archive.archived = []*entity.ArchivedPattern{
		{Id: uuid.New(), AgentRole: "developer", ArchivedAt: old, ArchiveReason: "Age and low usage"},
		{Id: uuid.New(), AgentRole: "reviewer", ArchivedAt: time.Now(), ArchiveReason: "Age and low usage"},
		{Id: uuid.New(), AgentRole: "tester", ArchivedAt: old, ArchiveReason: "manual"},
	}

	all, err := svc.ListArchived(context.Background(), "", nil)
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	byReason, err := svc.ListArchived(context.Background(), "manual", nil)
	assert.NoError(t, err)
	assert.Len(t, byReason, 1)
	assert.Equal(t, "tester", byReason[0].AgentRole)

	cutoff := time.Now().Add(-time.Hour)
	byAge, err := svc.ListArchived(context.Background(), "Age and low usage", &cutoff)
	assert.NoError(t, err)
	assert.Len(t, byAge, 1)
	assert.Equal(t, "developer", byAge[0].AgentRole)
}
