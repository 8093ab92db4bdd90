package implementation

import (
	"context"

	"agent-learning-be/internal/constant"
	"agent-learning-be/internal/entity"
	"agent-learning-be/internal/mapper"
	"agent-learning-be/internal/model"
	"agent-learning-be/internal/repository/contract"
	"agent-learning-be/internal/repository/scope"

	"gorm.io/gorm"
)

type ArchitectureDecisionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WorkItemMapper
}

func NewArchitectureDecisionRepository(db *gorm.DB) contract.ArchitectureDecisionRepository {
	return &ArchitectureDecisionRepositoryImpl{
		db:     db,
		mapper: mapper.NewWorkItemMapper(),
	}
}

func (r *ArchitectureDecisionRepositoryImpl) FindAccepted(ctx context.Context, limit int) ([]*entity.ArchitectureDecision, error) {
	var models []*model.ArchitectureDecision
	err := r.db.WithContext(ctx).
		Where("status = ?", constant.DecisionStatusAccepted).
		Scopes(scope.OrderByCreatedDesc).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	decisions := make([]*entity.ArchitectureDecision, len(models))
	for i, m := range models {
		decisions[i] = r.mapper.DecisionToEntity(m)
	}
	return decisions, nil
}

type ReviewRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WorkItemMapper
}

func NewReviewRepository(db *gorm.DB) contract.ReviewRepository {
	return &ReviewRepositoryImpl{
		db:     db,
		mapper: mapper.NewWorkItemMapper(),
	}
}

func (r *ReviewRepositoryImpl) FindApproved(ctx context.Context, agentRole string, limit int) ([]*entity.WorkItemReview, error) {
	var models []*model.WorkItemReview
	err := r.db.WithContext(ctx).
		Joins("JOIN work_item_results ON work_item_results.work_item_id = work_item_reviews.work_item_id").
		Where("work_item_reviews.status = ?", constant.ReviewStatusApproved).
		Where("work_item_results.agent_role = ? OR work_item_reviews.type = ?", agentRole, constant.ReviewTypeArchitecture).
		Order("work_item_reviews.created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	reviews := make([]*entity.WorkItemReview, len(models))
	for i, m := range models {
		reviews[i] = r.mapper.ReviewToEntity(m)
	}
	return reviews, nil
}
