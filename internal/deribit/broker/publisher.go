// Package broker publishes stored-price announcements to a Redis channel so
// downstream consumers can react without polling the database.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pricecollector/internal/deribit/fetcher"
	"pricecollector/pkg/storage/postgres"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Announcement is the JSON payload published for every stored price.
type Announcement struct {
	CycleID   string          `json:"cycle_id"`
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
	CreatedAt time.Time       `json:"created_at"`
}

// CycleSummary is the JSON payload published once per fetch cycle.
type CycleSummary struct {
	CycleID    string `json:"cycle_id"`
	Tickers    int    `json:"tickers"`
	Fetched    int    `json:"fetched"`
	Errors     int    `json:"errors"`
	DurationMS int64  `json:"duration_ms"`
}

type Publisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewPublisher connects to Redis and verifies it once. An unreachable broker
// is logged, not fatal: announcements are best effort and the worker keeps
// storing without them.
func NewPublisher(addr, password string, db int, channel string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable; announcements will fail until it returns",
			zap.String("addr", addr),
			zap.Error(err),
		)
	} else {
		logger.Info("redis announcement publisher ready",
			zap.String("addr", addr),
			zap.String("channel", channel),
		)
	}

	return &Publisher{client: client, channel: channel, logger: logger}
}

// PublishObservation publishes one stored price on the configured channel.
func (p *Publisher) PublishObservation(ctx context.Context, cycleID string, record *postgres.IndexPriceRecord) error {
	payload, err := json.Marshal(Announcement{
		CycleID:   cycleID,
		Ticker:    record.Ticker,
		Price:     record.Price,
		Timestamp: record.Timestamp,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish announcement: %w", err)
	}
	return nil
}

// PublishCycle publishes the cycle summary on a sibling channel so consumers
// can tell a quiet minute from a dead worker.
func (p *Publisher) PublishCycle(ctx context.Context, cycle fetcher.Cycle) error {
	payload, err := json.Marshal(CycleSummary{
		CycleID:    cycle.ID,
		Tickers:    len(cycle.Results),
		Fetched:    cycle.Succeeded(),
		Errors:     cycle.Failed(),
		DurationMS: cycle.Duration.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("marshal cycle summary: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel+":cycles", payload).Err(); err != nil {
		return fmt.Errorf("publish cycle summary: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
