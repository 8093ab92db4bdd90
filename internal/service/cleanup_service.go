package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"agent-learning-be/internal/dto"
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/mapper"
	"agent-learning-be/internal/pkg/logger"
	"agent-learning-be/internal/repository/specification"
	"agent-learning-be/internal/repository/unitofwork"
	"agent-learning-be/pkg/similarity"

	"github.com/google/uuid"
)

const (
	ineffectiveScoreCutoff = 0.3
	ineffectiveUsageCutoff = 2
	ineffectiveAge         = 30 * 24 * time.Hour

	archiveEffectCutoff = 0.5
	archiveReason       = "Age and low usage"

	mergeSimilarity = 0.95
	mergeRankEffect = 0.7
	mergeRankUsage  = 0.3
	mergeUsageScale = 100.0
)

type ICleanupService interface {
	// CleanupCycle runs the three sweeps. Failures on individual
	// patterns are logged and skipped so one bad row never blocks the
	// rest of the cycle.
	CleanupCycle(ctx context.Context) (*dto.CleanupReport, error)

	// RestorePattern moves an archived pattern back to the active store
	// with its original identity.
	RestorePattern(ctx context.Context, id uuid.UUID) (*entity.Pattern, error)

	// ListArchived returns archive rows, optionally filtered by reason
	// and by archive age, newest first.
	ListArchived(ctx context.Context, reason string, archivedBefore *time.Time) ([]*entity.ArchivedPattern, error)
}

type cleanupService struct {
	uowFactory    unitofwork.RepositoryFactory
	sysLogger     logger.ILogger
	archiveMapper *mapper.ArchivedPatternMapper
	maxPatternAge time.Duration
	minUsage      int
}

func NewCleanupService(
	uowFactory unitofwork.RepositoryFactory,
	sysLogger logger.ILogger,
	maxPatternAge time.Duration,
	minUsage int,
) ICleanupService {
	return &cleanupService{
		uowFactory:    uowFactory,
		sysLogger:     sysLogger,
		archiveMapper: mapper.NewArchivedPatternMapper(),
		maxPatternAge: maxPatternAge,
		minUsage:      minUsage,
	}
}

func (s *cleanupService) CleanupCycle(ctx context.Context) (*dto.CleanupReport, error) {
	report := &dto.CleanupReport{}

	removed, err := s.removeIneffective(ctx)
	if err != nil {
		return report, err
	}
	report.Removed = removed

	archived, err := s.archiveOld(ctx)
	if err != nil {
		return report, err
	}
	report.Archived = archived

	merged, err := s.mergeDuplicates(ctx)
	if err != nil {
		return report, err
	}
	report.Merged = merged

	s.sysLogger.Info("cleanup", "Cleanup cycle completed", map[string]interface{}{
		"removed":  report.Removed,
		"archived": report.Archived,
		"merged":   report.Merged,
	})
	return report, nil
}

// removeIneffective deletes patterns that scored low, saw little use, are
// over 30 days old, and have no successful application in the last 30 days.
func (s *cleanupService) removeIneffective(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	candidates, err := uow.PatternRepository().FindAll(ctx,
		specification.EffectivenessBelow{Threshold: ineffectiveScoreCutoff},
		specification.UsageBelow{Count: ineffectiveUsageCutoff},
		specification.CreatedBefore{Cutoff: time.Now().Add(-ineffectiveAge)},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to load ineffective candidates: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-ineffectiveAge)
	for _, pattern := range candidates {
		outcomes, err := uow.WorkItemRepository().FindPatternOutcomes(ctx, pattern.Id)
		if err != nil {
			s.logSweepFailure("remove", pattern.Id, err)
			continue
		}
		if hasRecentSuccess(outcomes, cutoff) {
			continue
		}
		if err := s.deletePattern(ctx, pattern.Id); err != nil {
			s.logSweepFailure("remove", pattern.Id, err)
			continue
		}
		removed++
	}
	return removed, nil
}

func hasRecentSuccess(outcomes []*entity.PatternOutcome, cutoff time.Time) bool {
	for _, outcome := range outcomes {
		if outcome.Success && outcome.CompletedAt != nil && outcome.CompletedAt.After(cutoff) {
			return true
		}
	}
	return false
}

// deletePattern removes the links first, then the pattern, in one
// transaction.
func (s *cleanupService) deletePattern(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.PatternWorkItemRepository().DeleteByPatternId(ctx, id); err != nil {
		return err
	}
	if err := uow.PatternRepository().Delete(ctx, id); err != nil {
		return err
	}
	return uow.Commit()
}

// archiveOld copies aged low-value patterns into the archive and deletes
// the active rows.
func (s *cleanupService) archiveOld(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	candidates, err := uow.PatternRepository().FindAll(ctx,
		specification.CreatedBefore{Cutoff: time.Now().Add(-s.maxPatternAge)},
		specification.UsageBelow{Count: 2 * s.minUsage},
		specification.EffectivenessBelow{Threshold: archiveEffectCutoff},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to load archive candidates: %w", err)
	}

	archived := 0
	for _, pattern := range candidates {
		if err := s.archivePattern(ctx, pattern); err != nil {
			s.logSweepFailure("archive", pattern.Id, err)
			continue
		}
		archived++
	}
	return archived, nil
}

func (s *cleanupService) archivePattern(ctx context.Context, pattern *entity.Pattern) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	record := s.archiveMapper.FromPattern(pattern, archiveReason)
	record.ArchivedAt = time.Now()
	if err := uow.ArchivedPatternRepository().Create(ctx, record); err != nil {
		return err
	}
	if err := uow.PatternWorkItemRepository().DeleteByPatternId(ctx, pattern.Id); err != nil {
		return err
	}
	if err := uow.PatternRepository().Delete(ctx, pattern.Id); err != nil {
		return err
	}
	return uow.Commit()
}

// mergeDuplicates groups embedded patterns into near-duplicate clusters
// and folds each cluster into its highest-ranked member.
func (s *cleanupService) mergeDuplicates(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	patterns, err := uow.PatternRepository().FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load patterns for merge: %w", err)
	}

	var embedded []*entity.Pattern
	for _, pattern := range patterns {
		if len(pattern.Embedding) > 0 {
			embedded = append(embedded, pattern)
		}
	}

	merged := 0
	for _, group := range duplicateGroups(embedded) {
		count, err := s.mergeGroup(ctx, group)
		if err != nil {
			s.logSweepFailure("merge", group[0].Id, err)
			continue
		}
		merged += count
	}
	return merged, nil
}

// duplicateGroups builds connected components over pairwise cosine
// similarity at the merge threshold, keeping only groups of two or more.
func duplicateGroups(patterns []*entity.Pattern) [][]*entity.Pattern {
	parent := make([]int, len(patterns))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			if similarity.Cosine(patterns[i].Embedding, patterns[j].Embedding) >= mergeSimilarity {
				parent[find(i)] = find(j)
			}
		}
	}

	components := make(map[int][]*entity.Pattern)
	var roots []int
	for i, pattern := range patterns {
		root := find(i)
		if _, seen := components[root]; !seen {
			roots = append(roots, root)
		}
		components[root] = append(components[root], pattern)
	}

	var groups [][]*entity.Pattern
	for _, root := range roots {
		if len(components[root]) > 1 {
			groups = append(groups, components[root])
		}
	}
	return groups
}

func mergeRank(pattern *entity.Pattern) float64 {
	return mergeRankEffect*pattern.EffectivenessScore + mergeRankUsage*(float64(pattern.UsageCount)/mergeUsageScale)
}

// mergeGroup keeps the top-ranked pattern, sums usage into it, keeps the
// longest texts, retargets links and deletes the rest, as one transaction.
func (s *cleanupService) mergeGroup(ctx context.Context, group []*entity.Pattern) (int, error) {
	sort.Slice(group, func(i, j int) bool { return mergeRank(group[i]) > mergeRank(group[j]) })
	survivor := group[0]
	losers := group[1:]

	totalUsage := survivor.UsageCount
	longestContext := survivor.Context
	longestSolution := survivor.Solution
	for _, loser := range losers {
		totalUsage += loser.UsageCount
		if len(loser.Context) > len(longestContext) {
			longestContext = loser.Context
		}
		if len(loser.Solution) > len(longestSolution) {
			longestSolution = loser.Solution
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	survivor.UsageCount = totalUsage
	survivor.Context = longestContext
	survivor.Solution = longestSolution
	if err := uow.PatternRepository().Update(ctx, survivor); err != nil {
		return 0, err
	}

	for _, loser := range losers {
		if err := uow.PatternWorkItemRepository().Retarget(ctx, loser.Id, survivor.Id); err != nil {
			return 0, err
		}
		if err := uow.PatternRepository().Delete(ctx, loser.Id); err != nil {
			return 0, err
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}
	return len(losers), nil
}

func (s *cleanupService) RestorePattern(ctx context.Context, id uuid.UUID) (*entity.Pattern, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	archived, err := uow.ArchivedPatternRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to load archived pattern: %w", err)
	}
	if archived == nil {
		return nil, ErrArchiveNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	pattern := s.archiveMapper.ToPattern(archived)
	if err := uow.PatternRepository().Create(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to restore pattern: %w", err)
	}
	if err := uow.ArchivedPatternRepository().Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete archive row: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.sysLogger.Info("cleanup", "Pattern restored from archive", map[string]interface{}{
		"pattern_id": id.String(),
	})
	return pattern, nil
}

func (s *cleanupService) ListArchived(ctx context.Context, reason string, archivedBefore *time.Time) ([]*entity.ArchivedPattern, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "archived_at", Desc: true},
	}
	if reason != "" {
		specs = append(specs, specification.ByArchiveReason{Reason: reason})
	}
	if archivedBefore != nil {
		specs = append(specs, specification.ArchivedBefore{Cutoff: *archivedBefore})
	}

	archived, err := uow.ArchivedPatternRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived patterns: %w", err)
	}
	return archived, nil
}

func (s *cleanupService) logSweepFailure(sweep string, id uuid.UUID, err error) {
	s.sysLogger.Warn("cleanup", "Sweep item failed", map[string]interface{}{
		"sweep":      sweep,
		"pattern_id": id.String(),
		"error":      err.Error(),
	})
}
