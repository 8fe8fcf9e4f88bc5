// Package report builds the financial and front-office reports. Money
// figures come from the ledger only, never from payments or reservations.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lodging/internal/domain"
	"lodging/internal/repository"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Summary struct {
	From       time.Time
	To         time.Time
	Revenue    decimal.Decimal
	Refunds    decimal.Decimal
	Expenses   decimal.Decimal
	Net        decimal.Decimal
	ByCategory map[domain.LedgerCategory]decimal.Decimal
	Entries    int
}

// Summary covers entries created on the dates from..to, both inclusive.
func (s *Service) Summary(ctx context.Context, tenantID int64, from, to time.Time) (*Summary, error) {
	entries, err := s.entries(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	out := &Summary{
		From:       domain.DateOf(from),
		To:         domain.DateOf(to),
		Revenue:    decimal.Zero,
		Refunds:    decimal.Zero,
		Expenses:   decimal.Zero,
		ByCategory: map[domain.LedgerCategory]decimal.Decimal{},
		Entries:    len(entries),
	}
	for _, e := range entries {
		out.ByCategory[e.Category] = out.ByCategory[e.Category].Add(e.Amount)
		switch {
		case e.Type == domain.LedgerCredit:
			out.Revenue = out.Revenue.Add(e.Amount)
		case e.Category == domain.CategoryRefund:
			out.Refunds = out.Refunds.Add(e.Amount)
		default:
			out.Expenses = out.Expenses.Add(e.Amount)
		}
	}
	out.Net = out.Revenue.Sub(out.Refunds).Sub(out.Expenses)
	return out, nil
}

type MethodTotals struct {
	Method  domain.PaymentMethod
	Credits decimal.Decimal
	Debits  decimal.Decimal
	Net     decimal.Decimal
}

type CashUp struct {
	TenantID int64
	Date     time.Time
	Methods  []MethodTotals
	Total    MethodTotals
}

// DailyCashUp totals one day's ledger per payment method, for reconciling the till.
func (s *Service) DailyCashUp(ctx context.Context, tenantID int64, day time.Time) (*CashUp, error) {
	entries, err := s.entries(ctx, tenantID, day, day)
	if err != nil {
		return nil, err
	}
	byMethod := map[domain.PaymentMethod]*MethodTotals{}
	total := MethodTotals{Credits: decimal.Zero, Debits: decimal.Zero}
	for _, e := range entries {
		m, ok := byMethod[e.Method]
		if !ok {
			m = &MethodTotals{Method: e.Method, Credits: decimal.Zero, Debits: decimal.Zero}
			byMethod[e.Method] = m
		}
		if e.Type == domain.LedgerCredit {
			m.Credits = m.Credits.Add(e.Amount)
			total.Credits = total.Credits.Add(e.Amount)
		} else {
			m.Debits = m.Debits.Add(e.Amount)
			total.Debits = total.Debits.Add(e.Amount)
		}
	}

	out := &CashUp{TenantID: tenantID, Date: domain.DateOf(day)}
	for _, m := range byMethod {
		m.Net = m.Credits.Sub(m.Debits)
		out.Methods = append(out.Methods, *m)
	}
	sort.Slice(out.Methods, func(i, j int) bool { return out.Methods[i].Method < out.Methods[j].Method })
	total.Net = total.Credits.Sub(total.Debits)
	out.Total = total
	return out, nil
}

func (s *Service) entries(ctx context.Context, tenantID int64, from, to time.Time) ([]domain.LedgerEntry, error) {
	start := domain.DateOf(from)
	end := domain.DateOf(to).AddDate(0, 0, 1)
	if !end.After(start) {
		return nil, domain.ErrInvalidDateRange
	}
	return repository.NewLedgerRepository(s.db).List(ctx, tenantID, repository.LedgerFilter{From: &start, To: &end})
}
