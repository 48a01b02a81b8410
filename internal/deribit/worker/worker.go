// Package worker runs the periodic fetch schedule. Every interval it asks the
// fetcher for one cycle over all configured tickers and retries the whole
// cycle only when no ticker at all got through.
package worker

import (
	"context"
	"sync"
	"time"

	"pricecollector/internal/deribit/fetcher"
	"pricecollector/pkg/deribit"
	"pricecollector/pkg/storage/postgres"

	"go.uber.org/zap"
)

const announceTimeout = 2 * time.Second

// Config holds worker configuration.
type Config struct {
	Interval   time.Duration // Fetch interval (default: 1m)
	MaxRetries int           // Cycle retries after a fully failed pass (default: 3)
	RetryDelay time.Duration // Delay between cycle retries (default: 5s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:   time.Minute,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	}
}

// Announcer publishes stored prices and cycle summaries to interested
// consumers. Optional; a nil announcer disables publishing.
type Announcer interface {
	PublishObservation(ctx context.Context, cycleID string, record *postgres.IndexPriceRecord) error
	PublishCycle(ctx context.Context, cycle fetcher.Cycle) error
}

// Worker periodically fetches index prices for a fixed set of tickers.
type Worker struct {
	cfg       Config
	fetcher   *fetcher.Fetcher
	tickers   []deribit.Ticker
	announcer Announcer
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Worker.
func New(cfg Config, f *fetcher.Fetcher, tickers []deribit.Ticker, announcer Announcer, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		cfg:       cfg,
		fetcher:   f,
		tickers:   tickers,
		announcer: announcer,
		logger:    logger,
	}
}

// Start begins the fetch loop.
func (w *Worker) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("price worker started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Int("tickers", len(w.tickers)),
	)

	return nil
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("price worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main fetch loop.
func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// Fetch immediately on start.
	w.cycleWithRetry()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.cycleWithRetry()
		}
	}
}

// cycleWithRetry runs one fetch cycle, rerunning it only when every ticker
// failed and at least one failure was transient. A partial failure counts as
// progress and is left to the next tick; a cycle the server rejected outright
// would fail identically on a rerun and is not retried.
func (w *Worker) cycleWithRetry() {
	if len(w.tickers) == 0 {
		w.logger.Warn("no tickers configured")
		return
	}

	for attempt := 0; ; attempt++ {
		cycle := w.fetcher.RunCycle(w.ctx, w.tickers)
		w.announce(cycle)

		if cycle.Err() == nil {
			return
		}

		if w.ctx.Err() != nil {
			return
		}
		if !cycle.Retryable() {
			w.logger.Error("fetch cycle failed with non-retryable errors",
				zap.String("cycle_id", cycle.ID),
			)
			return
		}
		if attempt >= w.cfg.MaxRetries {
			w.logger.Error("fetch cycle failed after retries",
				zap.String("cycle_id", cycle.ID),
				zap.Int("attempts", attempt+1),
			)
			return
		}

		w.logger.Warn("fetch cycle failed for every ticker; retrying",
			zap.String("cycle_id", cycle.ID),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", w.cfg.RetryDelay),
		)

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.cfg.RetryDelay):
		}
	}
}

// announce publishes every stored record of the cycle, then the cycle
// summary. Publish failures are logged and skipped; announcements are best
// effort.
func (w *Worker) announce(cycle fetcher.Cycle) {
	if w.announcer == nil {
		return
	}

	for _, r := range cycle.Results {
		if r.Err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(w.ctx, announceTimeout)
		if err := w.announcer.PublishObservation(ctx, cycle.ID, r.Record); err != nil {
			w.logger.Warn("failed to announce stored price",
				zap.String("cycle_id", cycle.ID),
				zap.String("ticker", r.Record.Ticker),
				zap.Error(err),
			)
		}
		cancel()
	}

	ctx, cancel := context.WithTimeout(w.ctx, announceTimeout)
	defer cancel()
	if err := w.announcer.PublishCycle(ctx, cycle); err != nil {
		w.logger.Warn("failed to announce cycle summary",
			zap.String("cycle_id", cycle.ID),
			zap.Error(err),
		)
	}
}
