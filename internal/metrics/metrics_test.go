package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counterTotal(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordsOnProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := New(mp)
	require.NoError(t, err)

	ctx := context.Background()
	m.BookingCreated(ctx, 1, 40*time.Millisecond)
	m.BookingFailed(ctx, 1, "availability")
	m.TxRetried(ctx, "booking.create")
	m.TxRetried(ctx, "booking.create")
	m.Transitioned(ctx, "confirmed", "checked_in")
	m.LedgerAppended(ctx, "payment")
	m.Published(ctx, 3, "redis")
	m.Published(ctx, 0, "redis")

	got := collect(t, reader)
	assert.Equal(t, int64(1), counterTotal(t, got["lodging.bookings.created"]))
	assert.Equal(t, int64(1), counterTotal(t, got["lodging.bookings.failed"]))
	assert.Equal(t, int64(2), counterTotal(t, got["lodging.tx.retries"]))
	assert.Equal(t, int64(1), counterTotal(t, got["lodging.reservations.transitions"]))
	assert.Equal(t, int64(1), counterTotal(t, got["lodging.ledger.entries"]))
	assert.Equal(t, int64(3), counterTotal(t, got["lodging.audit.published"]))

	hist, ok := got["lodging.booking.duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.BookingCreated(ctx, 1, time.Second)
		m.BookingFailed(ctx, 1, "validation")
		m.TxRetried(ctx, "x")
		m.Transitioned(ctx, "a", "b")
		m.LedgerAppended(ctx, "payment")
		m.Published(ctx, 1, "log")
	})
}

func TestNewProvider(t *testing.T) {
	mp, err := NewProvider(context.Background(), ProviderConfig{Exporter: "none"}, "lodging-test")
	require.NoError(t, err)
	require.NoError(t, mp.Shutdown(context.Background()))

	_, err = NewProvider(context.Background(), ProviderConfig{Exporter: "statsd"}, "lodging-test")
	assert.ErrorContains(t, err, "statsd")
}
