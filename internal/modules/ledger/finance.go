package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/domain"
	"lodging/internal/repository"
)

type IncomeRequest struct {
	Category    domain.LedgerCategory
	Amount      decimal.Decimal
	Method      domain.PaymentMethod
	Description string
	ReceivedOn  time.Time
}

type ExpenseRequest struct {
	Category    string
	Amount      decimal.Decimal
	Method      domain.PaymentMethod
	Description string
	SpentOn     time.Time
}

// RecordIncome books revenue that is not tied to a reservation.
func (s *Service) RecordIncome(ctx context.Context, actor domain.Actor, req IncomeRequest) (*domain.Income, *domain.LedgerEntry, error) {
	if !req.Category.IsIncome() {
		return nil, nil, domain.NewValidationError("category", "%q is not an income category", req.Category)
	}
	if err := checkAmount("amount", req.Amount); err != nil {
		return nil, nil, err
	}
	if err := checkMethod(req.Method); err != nil {
		return nil, nil, err
	}
	if req.ReceivedOn.IsZero() {
		req.ReceivedOn = domain.DateOf(s.now())
	}

	income := &domain.Income{
		TenantID:    actor.TenantID,
		Category:    req.Category,
		Amount:      req.Amount,
		Method:      req.Method,
		Description: strings.TrimSpace(req.Description),
		ReceivedOn:  domain.DateOf(req.ReceivedOn),
	}
	var entry *domain.LedgerEntry
	err := s.run(ctx, "ledger.income", func(tx *gorm.DB) error {
		income.ID = 0
		if err := repository.NewFinanceRepository(tx).CreateIncome(ctx, income); err != nil {
			return fmt.Errorf("create income: %w", err)
		}
		if err := s.audit.Record(ctx, tx, audit.Event{
			Actor:    actor,
			Action:   "income.created",
			EntityID: income.ID,
			After:    &domain.IncomeSnapshot{Category: income.Category, Amount: income.Amount, Method: income.Method},
		}); err != nil {
			return err
		}
		var err error
		entry, err = s.Append(ctx, tx, AppendEntry{
			Actor:         actor,
			Type:          domain.LedgerCredit,
			Amount:        income.Amount,
			Category:      income.Category,
			Method:        income.Method,
			ReferenceType: domain.RefIncome,
			ReferenceID:   income.ID,
			Description:   income.Description,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return income, entry, nil
}

// RecordExpense books an operating cost. Category is free text such as "utilities".
func (s *Service) RecordExpense(ctx context.Context, actor domain.Actor, req ExpenseRequest) (*domain.Expense, *domain.LedgerEntry, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, nil, domain.NewValidationError("category", "is required")
	}
	if err := checkAmount("amount", req.Amount); err != nil {
		return nil, nil, err
	}
	if err := checkMethod(req.Method); err != nil {
		return nil, nil, err
	}
	if req.SpentOn.IsZero() {
		req.SpentOn = domain.DateOf(s.now())
	}

	expense := &domain.Expense{
		TenantID:    actor.TenantID,
		Category:    category,
		Amount:      req.Amount,
		Method:      req.Method,
		Description: strings.TrimSpace(req.Description),
		SpentOn:     domain.DateOf(req.SpentOn),
	}
	var entry *domain.LedgerEntry
	err := s.run(ctx, "ledger.expense", func(tx *gorm.DB) error {
		expense.ID = 0
		if err := repository.NewFinanceRepository(tx).CreateExpense(ctx, expense); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		if err := s.audit.Record(ctx, tx, audit.Event{
			Actor:    actor,
			Action:   "expense.created",
			EntityID: expense.ID,
			After:    &domain.ExpenseSnapshot{Category: expense.Category, Amount: expense.Amount, Method: expense.Method},
		}); err != nil {
			return err
		}
		var err error
		entry, err = s.Append(ctx, tx, AppendEntry{
			Actor:         actor,
			Type:          domain.LedgerDebit,
			Amount:        expense.Amount,
			Category:      domain.CategoryExpense,
			Method:        expense.Method,
			ReferenceType: domain.RefExpense,
			ReferenceID:   expense.ID,
			Description:   expense.Category,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return expense, entry, nil
}
