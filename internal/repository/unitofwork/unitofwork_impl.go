package unitofwork

import (
	"context"
	"fmt"

	"agent-learning-be/internal/repository/contract"
	"agent-learning-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &RepositoryFactoryImpl{db: db}
}

func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db)
}

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // active transaction, nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) PatternRepository() contract.PatternRepository {
	return implementation.NewPatternRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PatternWorkItemRepository() contract.PatternWorkItemRepository {
	return implementation.NewPatternWorkItemRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ArchivedPatternRepository() contract.ArchivedPatternRepository {
	return implementation.NewArchivedPatternRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LearningMetricRepository() contract.LearningMetricRepository {
	return implementation.NewLearningMetricRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LearningErrorRepository() contract.LearningErrorRepository {
	return implementation.NewLearningErrorRepository(u.getDB())
}

func (u *UnitOfWorkImpl) WorkItemRepository() contract.WorkItemRepository {
	return implementation.NewWorkItemRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ArchitectureDecisionRepository() contract.ArchitectureDecisionRepository {
	return implementation.NewArchitectureDecisionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ReviewRepository() contract.ReviewRepository {
	return implementation.NewReviewRepository(u.getDB())
}
