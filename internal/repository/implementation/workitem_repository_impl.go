package implementation

import (
	"context"
	"time"

	"agent-learning-be/internal/constant"
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/mapper"
	"agent-learning-be/internal/model"
	"agent-learning-be/internal/repository/contract"
	"agent-learning-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkItemRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WorkItemMapper
}

func NewWorkItemRepository(db *gorm.DB) contract.WorkItemRepository {
	return &WorkItemRepositoryImpl{
		db:     db,
		mapper: mapper.NewWorkItemMapper(),
	}
}

func (r *WorkItemRepositoryImpl) FindCompleted(ctx context.Context, since *time.Time) ([]*entity.CompletedWorkItem, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", constant.WorkItemStatusCompleted).
		Where("completed_at IS NOT NULL")
	if since != nil {
		query = query.Where("completed_at >= ?", *since)
	}

	var items []*model.WorkItem
	if err := query.Order("completed_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.Id
	}

	latestResults, _, err := r.latestResults(ctx, ids)
	if err != nil {
		return nil, err
	}
	latestReviews, err := r.latestReviews(ctx, ids)
	if err != nil {
		return nil, err
	}

	completed := make([]*entity.CompletedWorkItem, 0, len(items))
	for _, item := range items {
		completed = append(completed, &entity.CompletedWorkItem{
			WorkItem: *r.mapper.ToEntity(item),
			Result:   r.mapper.ResultToEntity(latestResults[item.Id]),
			Review:   r.mapper.ReviewToEntity(latestReviews[item.Id]),
		})
	}
	return completed, nil
}

func (r *WorkItemRepositoryImpl) FindPatternOutcomes(ctx context.Context, patternId uuid.UUID) ([]*entity.PatternOutcome, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.PatternWorkItem{}).
		Where("pattern_id = ?", patternId).
		Pluck("work_item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var items []*model.WorkItem
	err = r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("completed_at IS NOT NULL").
		Order("completed_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	latestResults, attempts, err := r.latestResults(ctx, ids)
	if err != nil {
		return nil, err
	}
	latestReviews, err := r.latestReviews(ctx, ids)
	if err != nil {
		return nil, err
	}

	outcomes := make([]*entity.PatternOutcome, 0, len(items))
	for _, item := range items {
		outcome := &entity.PatternOutcome{
			WorkItemId:  item.Id,
			Attempts:    attempts[item.Id],
			CreatedAt:   item.CreatedAt,
			CompletedAt: item.CompletedAt,
		}
		if result := latestResults[item.Id]; result != nil {
			outcome.Success = result.Success
		}
		if review := latestReviews[item.Id]; review != nil {
			outcome.HasReview = true
			outcome.QualityScore = review.QualityScore
			outcome.Feedback = review.Feedback
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// latestResults returns the newest result per work item plus the attempt
// count (number of result rows) per work item.
func (r *WorkItemRepositoryImpl) latestResults(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.WorkItemResult, map[uuid.UUID]int, error) {
	var results []*model.WorkItemResult
	err := r.db.WithContext(ctx).
		Where("work_item_id IN ?", ids).
		Scopes(scope.OrderByCreatedAsc).
		Find(&results).Error
	if err != nil {
		return nil, nil, err
	}

	latest := make(map[uuid.UUID]*model.WorkItemResult)
	attempts := make(map[uuid.UUID]int)
	for _, result := range results {
		latest[result.WorkItemId] = result
		attempts[result.WorkItemId]++
	}
	return latest, attempts, nil
}

func (r *WorkItemRepositoryImpl) latestReviews(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.WorkItemReview, error) {
	var reviews []*model.WorkItemReview
	err := r.db.WithContext(ctx).
		Where("work_item_id IN ?", ids).
		Scopes(scope.OrderByCreatedAsc).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]*model.WorkItemReview)
	for _, review := range reviews {
		latest[review.WorkItemId] = review
	}
	return latest, nil
}
