package deribit

import (
	"errors"

	"github.com/shopspring/decimal"
)

// IndexPriceResponse represents the JSON-RPC envelope returned by Deribit's
// /public/get_index_price endpoint.
type IndexPriceResponse struct {
	JSONRPC string `json:"jsonrpc"` // Protocol version, e.g. "2.0"
	Result  *struct {
		IndexPrice             *decimal.Decimal `json:"index_price"`              // Current index price for the requested name
		EstimatedDeliveryPrice *decimal.Decimal `json:"estimated_delivery_price"` // Settlement estimate; unused here
	} `json:"result"`
	UsIn    int64 `json:"usIn"`    // Server receive time (microseconds since epoch)
	UsOut   int64 `json:"usOut"`   // Server send time (microseconds since epoch); the observation instant
	UsDiff  int64 `json:"usDiff"`  // Processing duration in microseconds
	Testnet bool  `json:"testnet"` // True when served by test.deribit.com
}

// ErrNoIndexPrice is returned when the response envelope decodes cleanly but
// carries no result.index_price field.
var ErrNoIndexPrice = errors.New("index price missing from response")

// IndexPrice is one observed index price, still carrying the upstream
// microsecond timestamp. Storage-side conversion happens elsewhere.
type IndexPrice struct {
	Ticker      Ticker
	Price       decimal.Decimal
	TimestampUS int64
}
