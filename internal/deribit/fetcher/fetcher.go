// Package fetcher pulls index prices from Deribit and lands them in storage.
// One cycle fetches every configured ticker concurrently; a failed ticker
// never blocks the others.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pricecollector/pkg/deribit"
	"pricecollector/pkg/storage/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// context for DB insert (short timeout)
const insertTimeout = 2 * time.Second

// ErrAllTickersFailed reports a cycle in which not a single ticker made it
// into storage. Partial failures do not raise it.
var ErrAllTickersFailed = errors.New("all tickers failed")

// PriceSource provides current index prices. *deribit.Client is the
// production implementation.
type PriceSource interface {
	GetIndexPrice(ctx context.Context, ticker deribit.Ticker) (*deribit.IndexPrice, error)
}

// Store is the slice of the price store the fetcher writes to.
type Store interface {
	InsertIndexPrice(ctx context.Context, record *postgres.IndexPriceRecord) error
}

// Result is the outcome for a single ticker within a cycle. Exactly one of
// Record and Err is set.
type Result struct {
	Ticker deribit.Ticker
	Record *postgres.IndexPriceRecord
	Err    error
}

// Cycle is the outcome of one fetch pass over all tickers. Results keeps the
// ticker order of the request.
type Cycle struct {
	ID       string
	Results  []Result
	Duration time.Duration
}

// Succeeded counts tickers that were fetched and stored.
func (c Cycle) Succeeded() int {
	n := 0
	for _, r := range c.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts tickers that errored.
func (c Cycle) Failed() int {
	return len(c.Results) - c.Succeeded()
}

// Err returns ErrAllTickersFailed when the cycle made no progress at all,
// nil otherwise. An empty cycle is not a failure.
func (c Cycle) Err() error {
	if len(c.Results) > 0 && c.Failed() == len(c.Results) {
		return ErrAllTickersFailed
	}
	return nil
}

// Retryable reports whether rerunning the cycle could change the outcome.
// Rejections the server would repeat identically (unknown index, bad request)
// are not worth another attempt; everything else is, network faults and
// server-side failures included.
func (c Cycle) Retryable() bool {
	for _, r := range c.Results {
		if r.Err == nil {
			continue
		}
		var apiErr *deribit.APIError
		if !errors.As(r.Err, &apiErr) || apiErr.IsRetryable() {
			return true
		}
	}
	return false
}

type Fetcher struct {
	source  PriceSource
	store   Store
	logger  *zap.Logger
	timeout time.Duration
}

func New(source PriceSource, store Store, logger *zap.Logger, timeout time.Duration) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source:  source,
		store:   store,
		logger:  logger,
		timeout: timeout,
	}
}

// FetchOne fetches, converts and stores a single ticker's index price.
func (f *Fetcher) FetchOne(ctx context.Context, ticker deribit.Ticker) (*postgres.IndexPriceRecord, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	price, err := f.source.GetIndexPrice(reqCtx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	record, err := postgres.ToIndexPriceRecord(price)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	if err := f.store.InsertIndexPrice(dbCtx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// RunCycle fetches all given tickers concurrently and reports per-ticker
// outcomes. Failures are logged here; retry policy belongs to the caller.
func (f *Fetcher) RunCycle(ctx context.Context, tickers []deribit.Ticker) Cycle {
	start := time.Now()
	cycleID := uuid.NewString()

	results := make([]Result, len(tickers))

	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker deribit.Ticker) {
			defer wg.Done()

			record, err := f.FetchOne(ctx, ticker)
			results[i] = Result{Ticker: ticker, Record: record, Err: err}
			if err != nil {
				f.logger.Warn("failed to fetch index price",
					zap.String("cycle_id", cycleID),
					zap.String("ticker", ticker.String()),
					zap.Error(err),
				)
				return
			}

			f.logger.Info("stored index price",
				zap.String("cycle_id", cycleID),
				zap.String("ticker", ticker.String()),
				zap.String("price", record.Price.String()),
				zap.Int64("timestamp", record.Timestamp),
			)
		}(i, ticker)
	}
	wg.Wait()

	cycle := Cycle{
		ID:       cycleID,
		Results:  results,
		Duration: time.Since(start),
	}

	f.logger.Info("fetch cycle complete",
		zap.String("cycle_id", cycleID),
		zap.Int("tickers", len(tickers)),
		zap.Int("fetched", cycle.Succeeded()),
		zap.Int("errors", cycle.Failed()),
		zap.Duration("duration", cycle.Duration),
	)

	return cycle
}
