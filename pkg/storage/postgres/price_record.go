package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndexPriceRecord represents one observed index price stored in the database.
//
// Timestamp is the upstream observation time in whole epoch seconds; CreatedAt
// is the local ingestion time. Range queries filter on CreatedAt and order on
// Timestamp, so each gets its own composite index with the ticker leading.
type IndexPriceRecord struct {
	ID uint `gorm:"primaryKey"`

	Ticker    string          `gorm:"type:varchar(10);not null;index:ix_ticker_timestamp,priority:1;index:ix_ticker_created_at,priority:1"`
	Price     decimal.Decimal `gorm:"type:numeric(16,8);not null"`
	Timestamp int64           `gorm:"not null;index:ix_ticker_timestamp,priority:2"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:ix_ticker_created_at,priority:2"`
}

// TableName overrides the default table name for GORM.
func (IndexPriceRecord) TableName() string {
	return "index_prices_deribit"
}
