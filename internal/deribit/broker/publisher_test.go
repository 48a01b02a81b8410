package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pricecollector/internal/deribit/fetcher"
	"pricecollector/internal/deribit/worker"
	"pricecollector/pkg/deribit"
	"pricecollector/pkg/storage/postgres"

	"github.com/shopspring/decimal"
)

var _ worker.Announcer = (*Publisher)(nil)

func TestAnnouncementJSON(t *testing.T) {
	payload, err := json.Marshal(Announcement{
		CycleID:   "a3b1",
		Ticker:    "btc_usd",
		Price:     decimal.RequireFromString("51000.50000000"),
		Timestamp: 1_700_000_000,
		CreatedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["cycle_id"] != "a3b1" {
		t.Errorf("cycle_id = %v", decoded["cycle_id"])
	}
	if decoded["ticker"] != "btc_usd" {
		t.Errorf("ticker = %v", decoded["ticker"])
	}
	// Decimal serializes as a string; precision survives the wire.
	if decoded["price"] != "51000.5" {
		t.Errorf("price = %v, want \"51000.5\"", decoded["price"])
	}
	if decoded["timestamp"] != float64(1_700_000_000) {
		t.Errorf("timestamp = %v", decoded["timestamp"])
	}
}

// NewPublisher must come up even when Redis is down; the worker treats
// announcements as best effort.
func TestNewPublisher_UnreachableRedis(t *testing.T) {
	p := NewPublisher("127.0.0.1:1", "", 0, "index_prices", nil)
	if p == nil {
		t.Fatal("publisher should be created even without a reachable broker")
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := p.PublishObservation(ctx, "cycle-1", &postgres.IndexPriceRecord{
		Ticker:    "btc_usd",
		Price:     decimal.RequireFromString("51000.5"),
		Timestamp: 1_700_000_000,
	})
	if err == nil {
		t.Fatal("expected publish error with unreachable broker")
	}
}

func TestCycleSummaryJSON(t *testing.T) {
	cycle := fetcher.Cycle{
		ID: "a3b1",
		Results: []fetcher.Result{
			{Ticker: deribit.TickerBTCUSD},
			{Ticker: deribit.TickerETHUSD, Err: context.DeadlineExceeded},
		},
		Duration: 1500 * time.Millisecond,
	}

	payload, err := json.Marshal(CycleSummary{
		CycleID:    cycle.ID,
		Tickers:    len(cycle.Results),
		Fetched:    cycle.Succeeded(),
		Errors:     cycle.Failed(),
		DurationMS: cycle.Duration.Milliseconds(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["fetched"] != float64(1) || decoded["errors"] != float64(1) {
		t.Errorf("counts = %v/%v, want 1/1", decoded["fetched"], decoded["errors"])
	}
	if decoded["duration_ms"] != float64(1500) {
		t.Errorf("duration_ms = %v, want 1500", decoded["duration_ms"])
	}
}
