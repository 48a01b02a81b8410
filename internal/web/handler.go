// Package web serves the read side of the price store as a JSON API.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pricecollector/pkg/deribit"
	"pricecollector/pkg/storage/postgres"
	"pricecollector/pkg/timeconv"

	"go.uber.org/zap"
)

// Store is the slice of the price store the API reads from.
type Store interface {
	ListBySymbol(ctx context.Context, ticker string, limit int) ([]postgres.IndexPriceRecord, error)
	LatestBySymbol(ctx context.Context, ticker string) (*postgres.IndexPriceRecord, error)
	ListByIngestionRange(ctx context.Context, ticker string, start, end time.Time, limit int) ([]postgres.IndexPriceRecord, error)
	IsHealthy(ctx context.Context) bool
}

// Observation is one stored index price in API form. Price keeps the full
// numeric(16,8) scale; CreatedAt is rendered in the configured display zone.
type Observation struct {
	ID        uint      `json:"id"`
	Ticker    string    `json:"ticker"`
	Price     string    `json:"price"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

type Handler struct {
	store  Store
	zone   *time.Location
	logger *zap.Logger
}

// NewHandler creates the API handler. zone controls how created_at is
// displayed and how period date parts are interpreted; nil means UTC.
func NewHandler(store Store, zone *time.Location, logger *zap.Logger) *Handler {
	if zone == nil {
		zone = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  store,
		zone:   zone,
		logger: logger,
	}
}

// Routes builds the API mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/prices", h.GetPrices)
	mux.HandleFunc("GET /api/prices/last", h.GetLastPrice)
	mux.HandleFunc("GET /api/prices/period", h.GetPricesByPeriod)
	mux.HandleFunc("GET /api/health", h.HealthCheck)

	return mux
}

// Setup configures the HTTP server around the API routes.
func (h *Handler) Setup(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h.Routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

// GetPrices returns the most recent observations for a ticker, newest first.
func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	ticker, err := deribit.ParseTicker(r.URL.Query().Get("ticker"))
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.store.ListBySymbol(r.Context(), ticker.String(), limit)
	if err != nil {
		h.logger.Error("failed to list prices",
			zap.String("ticker", ticker.String()),
			zap.Error(err),
		)
		sendErrorResponse(w, "failed to read prices", http.StatusInternalServerError)
		return
	}

	sendJSONResponse(w, h.toObservations(records))
}

// GetLastPrice returns the single most recent observation, or JSON null when
// nothing has been stored for the ticker yet.
func (h *Handler) GetLastPrice(w http.ResponseWriter, r *http.Request) {
	ticker, err := deribit.ParseTicker(r.URL.Query().Get("ticker"))
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.store.LatestBySymbol(r.Context(), ticker.String())
	if err != nil {
		h.logger.Error("failed to read last price",
			zap.String("ticker", ticker.String()),
			zap.Error(err),
		)
		sendErrorResponse(w, "failed to read prices", http.StatusInternalServerError)
		return
	}

	if record == nil {
		sendJSONResponse(w, nil)
		return
	}
	sendJSONResponse(w, h.toObservation(*record))
}

// GetPricesByPeriod returns observations whose ingestion time falls inside
// the requested window, oldest observation first. The window bounds come in
// as separate date parts, defaulted per part.
func (h *Handler) GetPricesByPeriod(w http.ResponseWriter, r *http.Request) {
	ticker, err := deribit.ParseTicker(r.URL.Query().Get("ticker"))
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, end, err := parsePeriodBounds(r.URL.Query(), h.zone)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.store.ListByIngestionRange(r.Context(), ticker.String(), start, end, limit)
	if err != nil {
		h.logger.Error("failed to list prices by period",
			zap.String("ticker", ticker.String()),
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err),
		)
		sendErrorResponse(w, "failed to read prices", http.StatusInternalServerError)
		return
	}

	sendJSONResponse(w, h.toObservations(records))
}

// HealthCheck reports whether the store behind the API is reachable.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "connected"}
	code := http.StatusOK

	if !h.store.IsHealthy(r.Context()) {
		status = map[string]string{"status": "degraded", "database": "disconnected"}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

func (h *Handler) toObservation(record postgres.IndexPriceRecord) Observation {
	return Observation{
		ID:        record.ID,
		Ticker:    record.Ticker,
		Price:     record.Price.StringFixed(8),
		Timestamp: record.Timestamp,
		CreatedAt: timeconv.InZone(record.CreatedAt, h.zone),
	}
}

// toObservations never returns nil: an empty list serializes as [].
func (h *Handler) toObservations(records []postgres.IndexPriceRecord) []Observation {
	out := make([]Observation, 0, len(records))
	for _, record := range records {
		out = append(out, h.toObservation(record))
	}
	return out
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return postgres.DefaultQueryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return limit, nil
}

func sendJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func sendErrorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
