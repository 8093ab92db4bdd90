package implementation

import (
	"context"

	"agent-learning-be/internal/model"
	"agent-learning-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PatternWorkItemRepositoryImpl struct {
	db *gorm.DB
}

func NewPatternWorkItemRepository(db *gorm.DB) contract.PatternWorkItemRepository {
	return &PatternWorkItemRepositoryImpl{db: db}
}

func (r *PatternWorkItemRepositoryImpl) Link(ctx context.Context, patternId, workItemId uuid.UUID) error {
	link := model.PatternWorkItem{PatternId: patternId, WorkItemId: workItemId}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

func (r *PatternWorkItemRepositoryImpl) LinkBulk(ctx context.Context, patternId uuid.UUID, workItemIds []uuid.UUID) error {
	if len(workItemIds) == 0 {
		return nil
	}
	links := make([]model.PatternWorkItem, 0, len(workItemIds))
	for _, workItemId := range workItemIds {
		links = append(links, model.PatternWorkItem{PatternId: patternId, WorkItemId: workItemId})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
}

func (r *PatternWorkItemRepositoryImpl) DeleteByPatternId(ctx context.Context, patternId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("pattern_id = ?", patternId).
		Delete(&model.PatternWorkItem{}).Error
}

func (r *PatternWorkItemRepositoryImpl) FindWorkItemIds(ctx context.Context, patternId uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.PatternWorkItem{}).
		Where("pattern_id = ?", patternId).
		Pluck("work_item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PatternWorkItemRepositoryImpl) CountByPatternId(ctx context.Context, patternId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PatternWorkItem{}).
		Where("pattern_id = ?", patternId).
		Count(&count).Error
	return count, err
}

func (r *PatternWorkItemRepositoryImpl) Retarget(ctx context.Context, fromPatternId, toPatternId uuid.UUID) error {
	// Drop links the target already has, then move the rest. Two statements,
	// expected to run inside the caller's transaction.
	err := r.db.WithContext(ctx).
		Where("pattern_id = ? AND work_item_id IN (?)",
			fromPatternId,
			r.db.Model(&model.PatternWorkItem{}).Select("work_item_id").Where("pattern_id = ?", toPatternId),
		).
		Delete(&model.PatternWorkItem{}).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.PatternWorkItem{}).
		Where("pattern_id = ?", fromPatternId).
		Update("pattern_id", toPatternId).Error
}
