package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/metrics"
	"lodging/internal/repository"
)

// Relay drains the outbox to a Publisher. Delivery is at-least-once: a crash
// between publish and mark re-sends the batch tail.
type Relay struct {
	db       *gorm.DB
	pub      Publisher
	interval time.Duration
	batch    int
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewRelay(db *gorm.DB, pub Publisher, interval time.Duration, batch int, log *zap.Logger, m *metrics.Metrics) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	if batch <= 0 {
		batch = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{db: db, pub: pub, interval: interval, batch: batch, log: log, metrics: m}
}

// Run flushes on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("audit relay started", zap.String("sink", r.pub.Name()), zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("audit relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.log.Warn("audit relay flush failed", zap.Error(err))
			}
		}
	}
}

// Flush publishes one batch in creation order and returns how many were sent.
// It stops at the first publish failure so ordering is preserved.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	repo := repository.NewAuditRepository(r.db)
	events, err := repo.ListUnpublished(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("list unpublished: %w", err)
	}

	sent := make([]string, 0, len(events))
	var pubErr error
	for _, e := range events {
		if pubErr = r.pub.Publish(ctx, messageFrom(e)); pubErr != nil {
			pubErr = fmt.Errorf("publish %s: %w", e.ID, pubErr)
			break
		}
		sent = append(sent, e.ID)
	}

	if err := repo.MarkPublished(ctx, sent, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	r.metrics.Published(ctx, len(sent), r.pub.Name())
	return len(sent), pubErr
}
