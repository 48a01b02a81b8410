package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pricecollector/config"
	"pricecollector/internal/deribit/fetcher"
	"pricecollector/logger"
	"pricecollector/pkg/deribit"
	"pricecollector/pkg/storage/postgres"

	"go.uber.org/zap"
)

// outcome is the per-ticker report printed to stdout.
type outcome struct {
	Ticker    string `json:"ticker"`
	Price     string `json:"price,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// fetch runs a single fetch cycle over all tickers and prints what happened.
// Exit code 1 means no ticker got through.
func main() {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to initialize postgres", zap.Error(err))
	}
	defer store.Close()

	client := deribit.NewClient(cfg.Deribit.REST.BaseURL, cfg.Deribit.REST.Timeout)
	f := fetcher.New(client, store, log, cfg.Deribit.REST.Timeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cycle := f.RunCycle(ctx, deribit.Tickers())

	outcomes := make([]outcome, 0, len(cycle.Results))
	for _, r := range cycle.Results {
		o := outcome{Ticker: r.Ticker.String()}
		if r.Err != nil {
			o.Error = r.Err.Error()
		} else {
			o.Price = r.Record.Price.StringFixed(8)
			o.Timestamp = r.Record.Timestamp
		}
		outcomes = append(outcomes, o)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcomes); err != nil {
		log.Error("failed to print outcomes", zap.Error(err))
	}

	if cycle.Err() != nil {
		fmt.Fprintln(os.Stderr, "fetch failed for every ticker")
		os.Exit(1)
	}
}
