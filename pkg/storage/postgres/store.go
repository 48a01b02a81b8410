package postgres

import (
	"context"
	"time"
)

// Store is the persistence surface shared by the scheduler and the query API.
// *PostgresClient is the production implementation; storetest.MemoryStore
// stands in for tests.
type Store interface {
	InsertIndexPrice(ctx context.Context, record *IndexPriceRecord) error
	ListBySymbol(ctx context.Context, ticker string, limit int) ([]IndexPriceRecord, error)
	LatestBySymbol(ctx context.Context, ticker string) (*IndexPriceRecord, error)
	ListByIngestionRange(ctx context.Context, ticker string, start, end time.Time, limit int) ([]IndexPriceRecord, error)
}

var _ Store = (*PostgresClient)(nil)
