package repository

import (
	"context"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

type FinanceRepository struct {
	db *gorm.DB
}

func NewFinanceRepository(db *gorm.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

func (r *FinanceRepository) CreateIncome(ctx context.Context, in *domain.Income) error {
	return r.db.WithContext(ctx).Create(in).Error
}

func (r *FinanceRepository) CreateExpense(ctx context.Context, ex *domain.Expense) error {
	return r.db.WithContext(ctx).Create(ex).Error
}
