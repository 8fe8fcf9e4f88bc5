package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/domain"
	"lodging/internal/modules/reservation"
	"lodging/internal/repository"
)

// RecordPaymentRequest settles money against a reservation. PaymentID names an
// initiated intent to capture; without it a new paid payment is created.
type RecordPaymentRequest struct {
	ReservationID int64
	Amount        decimal.Decimal
	Method        domain.PaymentMethod
	PaymentID     *int64
	Note          string
}

type PaymentResult struct {
	Payment     *domain.Payment
	Entry       *domain.LedgerEntry
	Reservation *domain.Reservation
}

func (s *Service) RecordPayment(ctx context.Context, actor domain.Actor, req RecordPaymentRequest) (*PaymentResult, error) {
	if err := checkAmount("amount", req.Amount); err != nil {
		return nil, err
	}
	if err := checkMethod(req.Method); err != nil {
		return nil, err
	}

	var out *PaymentResult
	err := s.run(ctx, "ledger.payment", func(tx *gorm.DB) error {
		res, err := repository.NewReservationRepository(tx).GetByIDForUpdate(ctx, actor.TenantID, req.ReservationID)
		if err != nil {
			return err
		}
		if res.Status == domain.ReservationCancelled || res.Status == domain.ReservationNoShow {
			return domain.NewValidationError("reservation_id", "reservation %s is %s", res.BookingReference, res.Status)
		}
		if outstanding := res.Outstanding(); req.Amount.GreaterThan(outstanding) {
			return fmt.Errorf("%w: %s offered, %s outstanding on %s", domain.ErrOverpayment,
				req.Amount.StringFixed(2), outstanding.StringFixed(2), res.BookingReference)
		}

		payment, err := s.settle(ctx, tx, actor, res, req)
		if err != nil {
			return err
		}
		entry, err := s.Append(ctx, tx, AppendEntry{
			Actor:         actor,
			Type:          domain.LedgerCredit,
			Amount:        req.Amount,
			Category:      domain.CategoryPayment,
			Method:        req.Method,
			ReferenceType: domain.RefPayment,
			ReferenceID:   payment.ID,
			ReservationID: &res.ID,
			Description:   "payment for " + res.BookingReference,
		})
		if err != nil {
			return err
		}
		if err := s.applyPaid(ctx, tx, actor, res, res.PaidAmount.Add(req.Amount)); err != nil {
			return err
		}

		if res.Status == domain.ReservationPending && !res.Outstanding().IsPositive() {
			if err := s.reservations.Apply(ctx, tx, actor, res, reservation.TransitionRequest{
				ReservationID: res.ID,
				To:            domain.ReservationConfirmed,
			}); err != nil {
				return err
			}
		}
		out = &PaymentResult{Payment: payment, Entry: entry, Reservation: res}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.Int64("tenant_id", actor.TenantID),
		zap.String("reference", out.Reservation.BookingReference),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("method", string(req.Method)))
	return out, nil
}

// settle captures the named intent or creates a new paid payment. An online
// payment without a PaymentID captures the reservation's open intent if any.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, actor domain.Actor, res *domain.Reservation, req RecordPaymentRequest) (*domain.Payment, error) {
	payments := repository.NewPaymentRepository(tx)
	now := s.now()

	if req.PaymentID == nil && req.Method == domain.MethodOnline {
		intent, err := payments.InitiatedFor(ctx, res.ID)
		if err != nil {
			return nil, fmt.Errorf("find payment intent: %w", err)
		}
		if intent != nil {
			return s.capture(ctx, tx, actor, intent, req, now)
		}
	}

	if req.PaymentID == nil {
		p := &domain.Payment{
			TenantID:      actor.TenantID,
			ReservationID: &res.ID,
			Amount:        req.Amount,
			Method:        req.Method,
			Status:        domain.PaymentPaid,
			Note:          req.Note,
			PaidAt:        &now,
		}
		if err := payments.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create payment: %w", err)
		}
		return p, s.audit.Record(ctx, tx, audit.Event{Actor: actor, Action: "payment.paid", EntityID: p.ID, After: domain.SnapshotPayment(p)})
	}

	p, err := payments.GetByIDForUpdate(ctx, actor.TenantID, *req.PaymentID)
	if err != nil {
		return nil, err
	}
	if p.ReservationID == nil || *p.ReservationID != res.ID {
		return nil, domain.NewValidationError("payment_id", "payment %d does not belong to reservation %s", p.ID, res.BookingReference)
	}
	if p.Status != domain.PaymentInitiated {
		return nil, domain.NewValidationError("payment_id", "payment %d is %s, only initiated payments can be captured", p.ID, p.Status)
	}
	return s.capture(ctx, tx, actor, p, req, now)
}

func (s *Service) capture(ctx context.Context, tx *gorm.DB, actor domain.Actor, p *domain.Payment, req RecordPaymentRequest, now time.Time) (*domain.Payment, error) {
	before := domain.SnapshotPayment(p)
	if err := repository.NewPaymentRepository(tx).MarkPaid(ctx, p.ID, req.Amount, req.Method, now); err != nil {
		return nil, fmt.Errorf("capture payment %d: %w", p.ID, err)
	}
	p.Status, p.Amount, p.Method, p.PaidAt = domain.PaymentPaid, req.Amount, req.Method, &now
	return p, s.audit.Record(ctx, tx, audit.Event{Actor: actor, Action: "payment.paid", EntityID: p.ID, Before: before, After: domain.SnapshotPayment(p)})
}

// applyPaid stores a new paid amount, clamped to [0, total].
func (s *Service) applyPaid(ctx context.Context, tx *gorm.DB, actor domain.Actor, res *domain.Reservation, paid decimal.Decimal) error {
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	if paid.GreaterThan(res.TotalAmount) {
		paid = res.TotalAmount
	}
	before := domain.SnapshotReservation(res)
	if err := repository.NewReservationRepository(tx).UpdateFields(ctx, res.ID, map[string]any{"paid_amount": paid}); err != nil {
		return fmt.Errorf("update paid amount of %s: %w", res.BookingReference, err)
	}
	res.PaidAmount = paid
	return s.audit.Record(ctx, tx, audit.Event{
		Actor:    actor,
		Action:   "reservation.paid_amount_changed",
		EntityID: res.ID,
		Before:   before,
		After:    domain.SnapshotReservation(res),
	})
}

type RefundRequest struct {
	PaymentID int64
	Amount    decimal.Decimal
	Reason    string
}

type RefundResult struct {
	Refund   *domain.Payment
	Original *domain.Payment
	Entry    *domain.LedgerEntry
}

// Refund books a negative payment against a paid one. Partial refunds are
// allowed while their sum stays within the original amount.
func (s *Service) Refund(ctx context.Context, actor domain.Actor, req RefundRequest) (*RefundResult, error) {
	if err := checkAmount("amount", req.Amount); err != nil {
		return nil, err
	}

	var out *RefundResult
	err := s.run(ctx, "ledger.refund", func(tx *gorm.DB) error {
		payments := repository.NewPaymentRepository(tx)
		orig, err := payments.GetByIDForUpdate(ctx, actor.TenantID, req.PaymentID)
		if err != nil {
			return err
		}
		if orig.IsRefund() {
			return domain.NewValidationError("payment_id", "payment %d is itself a refund", orig.ID)
		}
		if orig.Status != domain.PaymentPaid {
			return domain.NewValidationError("payment_id", "payment %d is %s, only paid payments can be refunded", orig.ID, orig.Status)
		}

		refunded, err := payments.RefundedAmount(ctx, orig.ID)
		if err != nil {
			return fmt.Errorf("sum refunds of payment %d: %w", orig.ID, err)
		}
		after := refunded.Add(req.Amount)
		if after.GreaterThan(orig.Amount) {
			return fmt.Errorf("%w: %s requested, %s of %s still refundable", domain.ErrRefundExceedsPayment,
				req.Amount.StringFixed(2), orig.Amount.Sub(refunded).StringFixed(2), orig.Amount.StringFixed(2))
		}

		now := s.now()
		refund := &domain.Payment{
			TenantID:      actor.TenantID,
			ReservationID: orig.ReservationID,
			Amount:        req.Amount.Neg(),
			Method:        orig.Method,
			Status:        domain.PaymentPaid,
			RefundOfID:    &orig.ID,
			Note:          req.Reason,
			PaidAt:        &now,
		}
		if err := payments.Create(ctx, refund); err != nil {
			return fmt.Errorf("create refund: %w", err)
		}
		if err := s.audit.Record(ctx, tx, audit.Event{Actor: actor, Action: "payment.refund_created", EntityID: refund.ID, After: domain.SnapshotPayment(refund)}); err != nil {
			return err
		}

		entry, err := s.Append(ctx, tx, AppendEntry{
			Actor:         actor,
			Type:          domain.LedgerDebit,
			Amount:        req.Amount,
			Category:      domain.CategoryRefund,
			Method:        orig.Method,
			ReferenceType: domain.RefPayment,
			ReferenceID:   refund.ID,
			ReservationID: orig.ReservationID,
			Description:   req.Reason,
		})
		if err != nil {
			return err
		}

		if after.Equal(orig.Amount) {
			before := domain.SnapshotPayment(orig)
			if err := payments.UpdateStatus(ctx, orig.ID, domain.PaymentRefunded); err != nil {
				return fmt.Errorf("mark payment %d refunded: %w", orig.ID, err)
			}
			orig.Status = domain.PaymentRefunded
			if err := s.audit.Record(ctx, tx, audit.Event{Actor: actor, Action: "payment.refunded", EntityID: orig.ID, Before: before, After: domain.SnapshotPayment(orig)}); err != nil {
				return err
			}
		}

		if orig.ReservationID != nil {
			res, err := repository.NewReservationRepository(tx).GetByIDForUpdate(ctx, actor.TenantID, *orig.ReservationID)
			if err != nil {
				return err
			}
			if err := s.applyPaid(ctx, tx, actor, res, res.PaidAmount.Sub(req.Amount)); err != nil {
				return err
			}
		}
		out = &RefundResult{Refund: refund, Original: orig, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("refund recorded",
		zap.Int64("tenant_id", actor.TenantID),
		zap.Int64("payment_id", req.PaymentID),
		zap.String("amount", req.Amount.StringFixed(2)))
	return out, nil
}
