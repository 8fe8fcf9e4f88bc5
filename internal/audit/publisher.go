package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"lodging/internal/domain"
)

// Message is the wire shape of a relayed audit event.
type Message struct {
	ID         string          `json:"id"`
	TenantID   int64           `json:"tenant_id"`
	ActorID    *int64          `json:"actor_id,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func messageFrom(e domain.AuditEvent) Message {
	m := Message{
		ID:         e.ID,
		TenantID:   e.TenantID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		CreatedAt:  e.CreatedAt,
	}
	if e.Before != nil {
		m.Before = json.RawMessage(*e.Before)
	}
	if e.After != nil {
		m.After = json.RawMessage(*e.After)
	}
	return m
}

// Publisher delivers audit messages to the external sink.
type Publisher interface {
	Publish(ctx context.Context, m Message) error
	Name() string
}

// LogPublisher writes events to the service log.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Name() string { return "log" }

func (p *LogPublisher) Publish(_ context.Context, m Message) error {
	p.log.Info("audit",
		zap.String("event_id", m.ID),
		zap.Int64("tenant_id", m.TenantID),
		zap.Int64p("actor_id", m.ActorID),
		zap.String("action", m.Action),
		zap.String("entity_type", m.EntityType),
		zap.Int64("entity_id", m.EntityID),
		zap.ByteString("before", m.Before),
		zap.ByteString("after", m.After),
	)
	return nil
}

// RedisStreamPublisher appends events to a Redis stream with XADD.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

func (p *RedisStreamPublisher) Name() string { return "redis" }

func (p *RedisStreamPublisher) Publish(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_id":    m.ID,
			"tenant_id":   strconv.FormatInt(m.TenantID, 10),
			"action":      m.Action,
			"entity_type": m.EntityType,
			"data":        string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// NATSPublisher publishes events to JetStream under <subject>.<entity_type>.
type NATSPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
}

const natsStreamName = "LODGING_AUDIT"

func ConnectNATS(ctx context.Context, url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     natsStreamName,
		Subjects: []string{subject + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}
	return &NATSPublisher{nc: nc, js: js, subject: subject}, nil
}

func (p *NATSPublisher) Name() string { return "nats" }

func (p *NATSPublisher) Publish(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	subject := p.subject + "." + m.EntityType
	// Msg-Id lets JetStream drop redeliveries of the same event.
	if _, err := p.js.Publish(ctx, subject, payload, jetstream.WithMsgID(m.ID)); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
