package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pricecollector/pkg/deribit"
	"pricecollector/pkg/timeconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultQueryLimit caps list queries when the caller passes no limit.
const DefaultQueryLimit = 100

// The price column is numeric(16,8): at most 8 digits on either side of the
// decimal point.
const (
	maxWholeDigits      = 8
	maxFractionalDigits = 8
)

// ErrPriceOutOfRange is returned when a price does not fit numeric(16,8).
var ErrPriceOutOfRange = errors.New("price does not fit numeric(16,8)")

func (p *PostgresClient) InsertIndexPrice(ctx context.Context, record *IndexPriceRecord) error {
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	if err != nil {
		return fmt.Errorf("insert index price %s: %w", record.Ticker, err)
	}
	return nil
}

// ListBySymbol returns the newest rows for the ticker, ordered by observation
// timestamp descending. A non-positive limit falls back to DefaultQueryLimit.
func (p *PostgresClient) ListBySymbol(ctx context.Context, ticker string, limit int) ([]IndexPriceRecord, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var records []IndexPriceRecord
	err := p.DB.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("list index prices %s: %w", ticker, err)
	}
	return records, nil
}

// LatestBySymbol returns the row with the newest observation timestamp, or
// (nil, nil) when the ticker has no rows yet.
func (p *PostgresClient) LatestBySymbol(ctx context.Context, ticker string) (*IndexPriceRecord, error) {
	records, err := p.ListBySymbol(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ListByIngestionRange returns rows whose ingestion time falls inside
// [start, end], ordered by observation timestamp ascending. Both bounds are
// inclusive.
func (p *PostgresClient) ListByIngestionRange(ctx context.Context, ticker string, start, end time.Time, limit int) ([]IndexPriceRecord, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var records []IndexPriceRecord
	err := p.DB.WithContext(ctx).
		Where("ticker = ? AND created_at BETWEEN ? AND ?", ticker, start, end).
		Order("timestamp ASC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("list index prices %s by ingestion range: %w", ticker, err)
	}
	return records, nil
}

// ToIndexPriceRecord converts a fetched observation into a row for insertion.
// The upstream microsecond timestamp becomes whole seconds, and the price is
// checked against the column precision; nothing is silently truncated.
func ToIndexPriceRecord(ip *deribit.IndexPrice) (*IndexPriceRecord, error) {
	seconds, err := timeconv.ToEpochSeconds(ip.TimestampUS)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ip.Ticker, err)
	}

	if err := checkPricePrecision(ip.Price); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", ip.Ticker, err, ip.Price)
	}

	return &IndexPriceRecord{
		Ticker:    ip.Ticker.String(),
		Price:     ip.Price,
		Timestamp: seconds,
	}, nil
}

func checkPricePrecision(d decimal.Decimal) error {
	fractional := 0
	if d.Exponent() < 0 {
		fractional = int(-d.Exponent())
	}
	whole := int(d.NumDigits()) + int(d.Exponent())
	if whole < 0 {
		whole = 0
	}

	if fractional > maxFractionalDigits || whole > maxWholeDigits {
		return ErrPriceOutOfRange
	}
	return nil
}
