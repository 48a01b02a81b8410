package postgres

import (
	"context"
	"fmt"

	"pricecollector/config"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type PostgresClient struct {
	DB *gorm.DB
}

func NewClient(dsn string) (*PostgresClient, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresClient{DB: db}, nil
}

// InitializeAndMigrate connects to Postgres and, when createSchema is set,
// creates the database and runs AutoMigrate first. Read-only processes pass
// false and connect to whatever schema the worker already built.
func InitializeAndMigrate(cfg config.PostgresConfig, env string, createSchema bool) (*PostgresClient, error) {
	if createSchema {
		if err := CreateDatabase(cfg, env); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	client, err := NewClient(cfg.DSN(env))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.configurePool(cfg); err != nil {
		return nil, fmt.Errorf("failed to configure pool: %w", err)
	}

	if createSchema {
		if err := client.AutoMigrateIndexPriceRecord(); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	return client, nil
}

// configurePool applies the connection pool limits to the underlying sql.DB.
// Zero values keep the driver defaults.
func (p *PostgresClient) configurePool(cfg config.PostgresConfig) error {
	db, err := p.DB.DB()
	if err != nil {
		return err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}

func (p *PostgresClient) AutoMigrateIndexPriceRecord() error {
	if err := p.DB.AutoMigrate(&IndexPriceRecord{}); err != nil {
		return fmt.Errorf("auto-migrate index price table: %w", err)
	}
	return nil
}

func (p *PostgresClient) IsHealthy(ctx context.Context) bool {
	db, err := p.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (p *PostgresClient) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}
