// Package metrics defines the engine's OpenTelemetry instruments.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "lodging"

// Metrics holds all metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	BookingsCreated   metric.Int64Counter
	BookingsFailed    metric.Int64Counter
	TxRetries         metric.Int64Counter
	StatusTransitions metric.Int64Counter
	LedgerEntries     metric.Int64Counter
	AuditPublished    metric.Int64Counter
	BookingDuration   metric.Float64Histogram
}

// New creates all metric instruments on mp, or on the global provider when mp is nil.
func New(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.BookingsCreated, err = meter.Int64Counter("lodging.bookings.created",
		metric.WithDescription("Number of bookings committed"))
	if err != nil {
		return nil, err
	}

	m.BookingsFailed, err = meter.Int64Counter("lodging.bookings.failed",
		metric.WithDescription("Number of booking attempts rejected or aborted"))
	if err != nil {
		return nil, err
	}

	m.TxRetries, err = meter.Int64Counter("lodging.tx.retries",
		metric.WithDescription("Transactions re-run after a serialization conflict"))
	if err != nil {
		return nil, err
	}

	m.StatusTransitions, err = meter.Int64Counter("lodging.reservations.transitions",
		metric.WithDescription("Reservation status transitions applied"))
	if err != nil {
		return nil, err
	}

	m.LedgerEntries, err = meter.Int64Counter("lodging.ledger.entries",
		metric.WithDescription("Ledger entries appended"))
	if err != nil {
		return nil, err
	}

	m.AuditPublished, err = meter.Int64Counter("lodging.audit.published",
		metric.WithDescription("Audit events relayed to the sink"))
	if err != nil {
		return nil, err
	}

	m.BookingDuration, err = meter.Float64Histogram("lodging.booking.duration_seconds",
		metric.WithDescription("Booking transaction duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) BookingCreated(ctx context.Context, tenantID int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Int64("tenant_id", tenantID))
	m.BookingsCreated.Add(ctx, 1, attrs)
	m.BookingDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) BookingFailed(ctx context.Context, tenantID int64, reason string) {
	if m == nil {
		return
	}
	m.BookingsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.Int64("tenant_id", tenantID),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) TxRetried(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.TxRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *Metrics) Transitioned(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) LedgerAppended(ctx context.Context, category string) {
	if m == nil {
		return
	}
	m.LedgerEntries.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

func (m *Metrics) Published(ctx context.Context, n int, sink string) {
	if m == nil || n == 0 {
		return
	}
	m.AuditPublished.Add(ctx, int64(n), metric.WithAttributes(attribute.String("sink", sink)))
}
