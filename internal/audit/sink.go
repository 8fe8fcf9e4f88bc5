package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/config"
	"lodging/internal/repository"
)

// OpenPublisher builds the sink named by cfg.Audit.Publisher. The returned
// close func releases the underlying connection.
func OpenPublisher(ctx context.Context, cfg *config.Config, log *zap.Logger) (Publisher, func() error, error) {
	switch cfg.Audit.Publisher {
	case "", "log":
		return NewLogPublisher(log), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStreamPublisher(client, cfg.Audit.Stream), client.Close, nil
	case "nats":
		p, err := ConnectNATS(ctx, cfg.NATS.URL, cfg.Audit.Subject)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown audit publisher %q", cfg.Audit.Publisher)
	}
}

// Prune deletes events that were relayed more than retention ago.
func Prune(ctx context.Context, db *gorm.DB, retention time.Duration, now time.Time) (int64, error) {
	n, err := repository.NewAuditRepository(db).DeletePublishedBefore(ctx, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return n, nil
}
