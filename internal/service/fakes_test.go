package service

import (
	"context"
	"time"

	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/repository/contract"
	"agent-learning-be/internal/repository/specification"
	"agent-learning-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory doubles for the repository contracts. Specifications that the
// services actually pass are interpreted in Go; the rest are ignored.

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakePatternRepo struct {
	patterns      []*entity.Pattern
	usageBumps    map[uuid.UUID]int
	scoresWritten map[uuid.UUID]float64
	failFindAll   error
}

func newFakePatternRepo(patterns ...*entity.Pattern) *fakePatternRepo {
	return &fakePatternRepo{
		patterns:      patterns,
		usageBumps:    make(map[uuid.UUID]int),
		scoresWritten: make(map[uuid.UUID]float64),
	}
}

func (r *fakePatternRepo) Create(_ context.Context, pattern *entity.Pattern) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

func (r *fakePatternRepo) Update(_ context.Context, pattern *entity.Pattern) error {
	for i, existing := range r.patterns {
		if existing.Id == pattern.Id {
			r.patterns[i] = pattern
		}
	}
	return nil
}

func (r *fakePatternRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.patterns[:0]
	for _, pattern := range r.patterns {
		if pattern.Id != id {
			kept = append(kept, pattern)
		}
	}
	r.patterns = kept
	return nil
}

func (r *fakePatternRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Pattern, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

func (r *fakePatternRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Pattern, error) {
	if r.failFindAll != nil {
		return nil, r.failFindAll
	}

	limit := -1
	var matches []*entity.Pattern
	for _, pattern := range r.patterns {
		keep := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				keep = keep && pattern.Id == s.ID
			case specification.ByAgentRole:
				keep = keep && pattern.AgentRole == s.AgentRole
			case specification.UsageAtLeast:
				keep = keep && pattern.UsageCount >= s.Count
			case specification.UsageBelow:
				keep = keep && pattern.UsageCount < s.Count
			case specification.EffectivenessBelow:
				keep = keep && pattern.EffectivenessScore < s.Threshold
			case specification.CreatedBefore:
				keep = keep && pattern.CreatedAt.Before(s.Cutoff)
			case specification.Paginate:
				limit = s.Limit
			}
		}
		if keep {
			matches = append(matches, pattern)
		}
	}
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *fakePatternRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := r.FindAll(ctx, specs...)
	return int64(len(matches)), err
}

func (r *fakePatternRepo) IncrementUsage(_ context.Context, id uuid.UUID) error {
	r.usageBumps[id]++
	return nil
}

func (r *fakePatternRepo) UpdateEffectiveness(_ context.Context, id uuid.UUID, score float64) error {
	r.scoresWritten[id] = score
	for _, pattern := range r.patterns {
		if pattern.Id == id {
			pattern.EffectivenessScore = score
		}
	}
	return nil
}

type fakeLinkRepo struct {
	links map[uuid.UUID][]uuid.UUID
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[uuid.UUID][]uuid.UUID)}
}

func (r *fakeLinkRepo) Link(_ context.Context, patternId, workItemId uuid.UUID) error {
	for _, existing := range r.links[patternId] {
		if existing == workItemId {
			return nil
		}
	}
	r.links[patternId] = append(r.links[patternId], workItemId)
	return nil
}

func (r *fakeLinkRepo) LinkBulk(ctx context.Context, patternId uuid.UUID, workItemIds []uuid.UUID) error {
	for _, id := range workItemIds {
		if err := r.Link(ctx, patternId, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeLinkRepo) DeleteByPatternId(_ context.Context, patternId uuid.UUID) error {
	delete(r.links, patternId)
	return nil
}

func (r *fakeLinkRepo) FindWorkItemIds(_ context.Context, patternId uuid.UUID) ([]uuid.UUID, error) {
	return r.links[patternId], nil
}

func (r *fakeLinkRepo) CountByPatternId(_ context.Context, patternId uuid.UUID) (int64, error) {
	return int64(len(r.links[patternId])), nil
}

func (r *fakeLinkRepo) Retarget(ctx context.Context, fromPatternId, toPatternId uuid.UUID) error {
	for _, workItemId := range r.links[fromPatternId] {
		if err := r.Link(ctx, toPatternId, workItemId); err != nil {
			return err
		}
	}
	delete(r.links, fromPatternId)
	return nil
}

type fakeArchiveRepo struct {
	archived []*entity.ArchivedPattern
}

func (r *fakeArchiveRepo) Create(_ context.Context, archived *entity.ArchivedPattern) error {
	r.archived = append(r.archived, archived)
	return nil
}

func (r *fakeArchiveRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.archived[:0]
	for _, a := range r.archived {
		if a.Id != id {
			kept = append(kept, a)
		}
	}
	r.archived = kept
	return nil
}

func (r *fakeArchiveRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ArchivedPattern, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

func (r *fakeArchiveRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ArchivedPattern, error) {
	var matches []*entity.ArchivedPattern
	for _, a := range r.archived {
		keep := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				keep = keep && a.Id == s.ID
			case specification.ByArchiveReason:
				keep = keep && a.ArchiveReason == s.Reason
			case specification.ArchivedBefore:
				keep = keep && a.ArchivedAt.Before(s.Cutoff)
			}
		}
		if keep {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

type fakeMetricRepo struct {
	created []*entity.LearningMetric
}

func (r *fakeMetricRepo) Create(_ context.Context, metric *entity.LearningMetric) error {
	r.created = append(r.created, metric)
	return nil
}

func (r *fakeMetricRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.LearningMetric, error) {
	return r.created, nil
}

type fakeErrorRepo struct {
	created []*entity.LearningError
}

func (r *fakeErrorRepo) Create(_ context.Context, learningError *entity.LearningError) error {
	r.created = append(r.created, learningError)
	return nil
}

func (r *fakeErrorRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.LearningError, error) {
	return r.created, nil
}

type fakeWorkItemRepo struct {
	completed []*entity.CompletedWorkItem
	outcomes  map[uuid.UUID][]*entity.PatternOutcome
}

func newFakeWorkItemRepo() *fakeWorkItemRepo {
	return &fakeWorkItemRepo{outcomes: make(map[uuid.UUID][]*entity.PatternOutcome)}
}

func (r *fakeWorkItemRepo) FindCompleted(_ context.Context, since *time.Time) ([]*entity.CompletedWorkItem, error) {
	if since == nil {
		return r.completed, nil
	}
	var matches []*entity.CompletedWorkItem
	for _, item := range r.completed {
		if item.CompletedAt != nil && !item.CompletedAt.Before(*since) {
			matches = append(matches, item)
		}
	}
	return matches, nil
}

func (r *fakeWorkItemRepo) FindPatternOutcomes(_ context.Context, patternId uuid.UUID) ([]*entity.PatternOutcome, error) {
	return r.outcomes[patternId], nil
}

type fakeDecisionRepo struct {
	decisions []*entity.ArchitectureDecision
}

func (r *fakeDecisionRepo) FindAccepted(_ context.Context, limit int) ([]*entity.ArchitectureDecision, error) {
	if len(r.decisions) > limit {
		return r.decisions[:limit], nil
	}
	return r.decisions, nil
}

type fakeReviewRepo struct {
	reviews []*entity.WorkItemReview
}

func (r *fakeReviewRepo) FindApproved(_ context.Context, _ string, limit int) ([]*entity.WorkItemReview, error) {
	if len(r.reviews) > limit {
		return r.reviews[:limit], nil
	}
	return r.reviews, nil
}

type fakeUow struct {
	patterns  *fakePatternRepo
	links     *fakeLinkRepo
	archive   *fakeArchiveRepo
	metrics   *fakeMetricRepo
	errors    *fakeErrorRepo
	workItems *fakeWorkItemRepo
	decisions *fakeDecisionRepo
	reviews   *fakeReviewRepo

	commits   int
	rollbacks int
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		patterns:  newFakePatternRepo(),
		links:     newFakeLinkRepo(),
		archive:   &fakeArchiveRepo{},
		metrics:   &fakeMetricRepo{},
		errors:    &fakeErrorRepo{},
		workItems: newFakeWorkItemRepo(),
		decisions: &fakeDecisionRepo{},
		reviews:   &fakeReviewRepo{},
	}
}

func (u *fakeUow) Begin(context.Context) error { return nil }
func (u *fakeUow) Commit() error {
	u.commits++
	return nil
}
func (u *fakeUow) Rollback() error {
	u.rollbacks++
	return nil
}

func (u *fakeUow) PatternRepository() contract.PatternRepository                 { return u.patterns }
func (u *fakeUow) PatternWorkItemRepository() contract.PatternWorkItemRepository { return u.links }
func (u *fakeUow) ArchivedPatternRepository() contract.ArchivedPatternRepository { return u.archive }
func (u *fakeUow) LearningMetricRepository() contract.LearningMetricRepository   { return u.metrics }
func (u *fakeUow) LearningErrorRepository() contract.LearningErrorRepository     { return u.errors }
func (u *fakeUow) WorkItemRepository() contract.WorkItemRepository               { return u.workItems }
func (u *fakeUow) ArchitectureDecisionRepository() contract.ArchitectureDecisionRepository {
	return u.decisions
}
func (u *fakeUow) ReviewRepository() contract.ReviewRepository { return u.reviews }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f fakeUowFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }
