// Package storetest provides an in-memory postgres.Store for tests. It
// mirrors the SQL semantics of the real store: ids from a sequence,
// ingestion time stamped on insert, list ordering and limits as the
// queries define them.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"pricecollector/pkg/storage/postgres"
)

type MemoryStore struct {
	mu      sync.Mutex
	records []postgres.IndexPriceRecord
	nextID  uint
	failErr error

	// Now stamps CreatedAt on insert. Defaults to time.Now; tests override
	// it for deterministic ingestion times.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make([]postgres.IndexPriceRecord, 0),
		nextID:  1,
		Now:     time.Now,
	}
}

var _ postgres.Store = (*MemoryStore)(nil)

// FailWith makes every subsequent store call return err. Passing nil clears
// the injected failure.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

func (m *MemoryStore) InsertIndexPrice(_ context.Context, record *postgres.IndexPriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}

	stored := *record
	stored.ID = m.nextID
	m.nextID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.Now()
	}
	m.records = append(m.records, stored)

	// Reflect the assigned id back, as gorm does.
	record.ID = stored.ID
	record.CreatedAt = stored.CreatedAt
	return nil
}

func (m *MemoryStore) ListBySymbol(_ context.Context, ticker string, limit int) ([]postgres.IndexPriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	if limit <= 0 {
		limit = postgres.DefaultQueryLimit
	}

	out := m.filter(func(r postgres.IndexPriceRecord) bool {
		return r.Ticker == ticker
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return truncate(out, limit), nil
}

func (m *MemoryStore) LatestBySymbol(ctx context.Context, ticker string) (*postgres.IndexPriceRecord, error) {
	records, err := m.ListBySymbol(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (m *MemoryStore) ListByIngestionRange(_ context.Context, ticker string, start, end time.Time, limit int) ([]postgres.IndexPriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	if limit <= 0 {
		limit = postgres.DefaultQueryLimit
	}

	out := m.filter(func(r postgres.IndexPriceRecord) bool {
		// BETWEEN is inclusive on both ends.
		return r.Ticker == ticker &&
			!r.CreatedAt.Before(start) &&
			!r.CreatedAt.After(end)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return truncate(out, limit), nil
}

// IsHealthy reports whether the store accepts calls; an injected failure
// counts as unhealthy, like a dead database connection would.
func (m *MemoryStore) IsHealthy(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failErr == nil
}

// Records returns a copy of everything stored, in insertion order.
func (m *MemoryStore) Records() []postgres.IndexPriceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to avoid race
	out := make([]postgres.IndexPriceRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m *MemoryStore) filter(keep func(postgres.IndexPriceRecord) bool) []postgres.IndexPriceRecord {
	out := make([]postgres.IndexPriceRecord, 0, len(m.records))
	for _, r := range m.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func truncate(records []postgres.IndexPriceRecord, limit int) []postgres.IndexPriceRecord {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}
