package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"pricecollector/pkg/deribit"
	"pricecollector/pkg/storage/postgres"
	"pricecollector/pkg/timeconv"

	"github.com/shopspring/decimal"
)

func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping live database test")
	}
	return dsn
}

// go test -v --run TestToIndexPriceRecord
func TestToIndexPriceRecord(t *testing.T) {
	record, err := postgres.ToIndexPriceRecord(&deribit.IndexPrice{
		Ticker:      deribit.TickerBTCUSD,
		Price:       decimal.RequireFromString("57219.77"),
		TimestampUS: 1618910697028080,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Ticker != "btc_usd" {
		t.Errorf("Ticker = %q, want btc_usd", record.Ticker)
	}
	if record.Timestamp != 1618910697 {
		t.Errorf("Timestamp = %d, want 1618910697 (whole seconds)", record.Timestamp)
	}
	if !record.Price.Equal(decimal.RequireFromString("57219.77")) {
		t.Errorf("Price = %s, want 57219.77", record.Price)
	}
	if !record.CreatedAt.IsZero() {
		t.Errorf("CreatedAt should be left for the database, got %v", record.CreatedAt)
	}
}

func TestToIndexPriceRecord_MissingTimestamp(t *testing.T) {
	for _, us := range []int64{0, -5} {
		_, err := postgres.ToIndexPriceRecord(&deribit.IndexPrice{
			Ticker:      deribit.TickerBTCUSD,
			Price:       decimal.RequireFromString("57219.77"),
			TimestampUS: us,
		})
		if !errors.Is(err, timeconv.ErrNoTimestamp) {
			t.Errorf("TimestampUS=%d err = %v, want ErrNoTimestamp", us, err)
		}
	}
}

func TestToIndexPriceRecord_PricePrecision(t *testing.T) {
	cases := []struct {
		name  string
		price string
		ok    bool
	}{
		{"typical", "57219.77", true},
		{"eight whole digits", "99999999", true},
		{"eight fractional digits", "0.00000001", true},
		{"full precision", "99999999.99999999", true},
		{"nine whole digits", "100000000", false},
		{"nine fractional digits", "0.000000001", false},
		{"too wide both sides", "123456789.123456789", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := postgres.ToIndexPriceRecord(&deribit.IndexPrice{
				Ticker:      deribit.TickerETHUSD,
				Price:       decimal.RequireFromString(tc.price),
				TimestampUS: 1618910697028080,
			})
			if tc.ok && err != nil {
				t.Errorf("price %s: unexpected error %v", tc.price, err)
			}
			if !tc.ok && !errors.Is(err, postgres.ErrPriceOutOfRange) {
				t.Errorf("price %s: err = %v, want ErrPriceOutOfRange", tc.price, err)
			}
		})
	}
}

func TestIndexPriceRecordTableName(t *testing.T) {
	if got := (postgres.IndexPriceRecord{}).TableName(); got != "index_prices_deribit" {
		t.Errorf("TableName() = %q, want index_prices_deribit", got)
	}
}

// go test -v --run TestIndexPriceCRUD
func TestIndexPriceCRUD(t *testing.T) {
	client, err := postgres.NewClient(testDSN(t))
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	if err := client.AutoMigrateIndexPriceRecord(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ticker := "btc_usd"
	base := time.Now().Unix()

	// Insert three observations out of order.
	for _, offset := range []int64{120, 0, 60} {
		record := &postgres.IndexPriceRecord{
			Ticker:    ticker,
			Price:     decimal.RequireFromString("51000.5"),
			Timestamp: base + offset,
		}
		if err := client.InsertIndexPrice(ctx, record); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if record.ID == 0 {
			t.Error("insert should backfill the id")
		}
	}

	// Newest first.
	records, err := client.ListBySymbol(ctx, ticker, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Timestamp != base+120 || records[2].Timestamp != base {
		t.Errorf("unexpected order: %d, %d, %d",
			records[0].Timestamp, records[1].Timestamp, records[2].Timestamp)
	}

	// Latest picks the newest observation.
	latest, err := client.LatestBySymbol(ctx, ticker)
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest == nil || latest.Timestamp != base+120 {
		t.Errorf("latest = %+v, want timestamp %d", latest, base+120)
	}

	// Ingestion range around now catches everything, ascending.
	now := time.Now()
	ranged, err := client.ListByIngestionRange(ctx, ticker, now.Add(-time.Minute), now.Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(ranged) < 3 {
		t.Fatalf("expected at least 3 records in range, got %d", len(ranged))
	}
	for i := 1; i < len(ranged); i++ {
		if ranged[i-1].Timestamp > ranged[i].Timestamp {
			t.Errorf("range not ascending at %d: %d > %d", i, ranged[i-1].Timestamp, ranged[i].Timestamp)
		}
	}

	// Unknown ticker comes back empty, not an error.
	empty, err := client.ListBySymbol(ctx, "doge_usd", 5)
	if err != nil {
		t.Fatalf("list unknown ticker failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no rows, got %d", len(empty))
	}

	none, err := client.LatestBySymbol(ctx, "doge_usd")
	if err != nil {
		t.Fatalf("latest unknown ticker failed: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for empty ticker, got %+v", none)
	}
}
