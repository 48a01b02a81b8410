package deribit

import (
	"errors"
	"fmt"
	"strings"
)

// Ticker is a Deribit index name as used by the public API, e.g. "btc_usd".
type Ticker string

const (
	TickerBTCUSD Ticker = "btc_usd"
	TickerETHUSD Ticker = "eth_usd"
)

// ErrUnknownTicker is returned for symbols outside the supported set.
var ErrUnknownTicker = errors.New("unknown ticker")

// tickerOrder fixes the iteration order for scheduled fetch cycles.
var tickerOrder = []Ticker{TickerBTCUSD, TickerETHUSD}

var validTickers = map[Ticker]struct{}{
	TickerBTCUSD: {},
	TickerETHUSD: {},
}

// IsValid checks if the Ticker is one of the supported index names.
func (t Ticker) IsValid() bool {
	_, ok := validTickers[t]
	return ok
}

func (t Ticker) String() string {
	return string(t)
}

// ParseTicker parses a string into a supported Ticker. Input is trimmed and
// lowercased, so "BTC_USD" and " btc_usd " both resolve to TickerBTCUSD.
func ParseTicker(s string) (Ticker, error) {
	t := Ticker(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTicker, s)
	}
	return t, nil
}

// Tickers returns the supported tickers in fetch order. The slice is a copy;
// callers may reorder it freely.
func Tickers() []Ticker {
	out := make([]Ticker, len(tickerOrder))
	copy(out, tickerOrder)
	return out
}
