package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"pricecollector/config"
	"pricecollector/internal/deribit/broker"
	"pricecollector/internal/deribit/fetcher"
	"pricecollector/internal/deribit/worker"
	"pricecollector/logger"
	"pricecollector/pkg/deribit"
	"pricecollector/pkg/storage/postgres"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

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

	// postgres client; the worker owns database and schema creation
	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to initialize postgres", zap.Error(err))
	}
	defer store.Close()

	client := deribit.NewClient(cfg.Deribit.REST.BaseURL, cfg.Deribit.REST.Timeout)

	// optional redis announcements
	var announcer worker.Announcer
	if cfg.Redis.Addr != "" {
		publisher := broker.NewPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel, log)
		defer publisher.Close()
		announcer = publisher
	}

	f := fetcher.New(client, store, log, cfg.Deribit.REST.Timeout)
	w := worker.New(worker.Config{
		Interval:   cfg.Worker.Interval,
		MaxRetries: cfg.Worker.MaxRetries,
		RetryDelay: cfg.Worker.RetryDelay,
	}, f, deribit.Tickers(), announcer, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		log.Fatal("failed to start worker", zap.Error(err))
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := w.Stop(shutdownCtx); err != nil {
		log.Error("worker stopped uncleanly", zap.Error(err))
	}
}
