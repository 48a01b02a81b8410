package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"pricecollector/config"
	"pricecollector/internal/web"
	"pricecollector/logger"
	"pricecollector/pkg/storage/postgres"
	"pricecollector/pkg/timeconv"

	"go.uber.org/zap"
)

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

	// postgres client; schema creation belongs to the worker
	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, false)
	if err != nil {
		log.Fatal("failed to initialize postgres", zap.Error(err))
	}
	defer store.Close()

	handler := web.NewHandler(store, timeconv.FixedZone(cfg.Display.UTCOffsetHours), log)
	server := handler.Setup(cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("price api listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server stopped uncleanly", zap.Error(err))
	}
}
