package repository

import (
	"context"
	"time"

	"BarPull/internal/domain/models"
)

// BarFetcher is the external market-data boundary: given a symbol it returns
// the provider's daily bars. Implementations own their own auth, freshness and
// rate-limit concerns; the rest of the system treats them as interchangeable.
type BarFetcher interface {
	FetchDailyBars(ctx context.Context, symbol string) ([]models.DailyBar, error)
	Name() string
}

// MarketStore is durable storage for instruments and price bars.
//
// Lookups report absence as (nil, nil), never as an error. Constraint
// violations (duplicate symbol) match ErrConstraint via errors.Is.
type MarketStore interface {
	CreateInstrument(ctx context.Context, spec models.InstrumentSpec) (*models.Instrument, error)
	InstrumentBySymbol(ctx context.Context, symbol string) (*models.Instrument, error)
	ListInstruments(ctx context.Context, offset, limit int) ([]models.Instrument, error)

	// BulkInsertBars persists all specs in one transaction: either every bar
	// commits or none do. Returned bars carry assigned ids in input order.
	BulkInsertBars(ctx context.Context, specs []models.PriceBarSpec) ([]models.PriceBar, error)

	// BarsForInstrument returns bars ascending by date. A zero from/to leaves
	// that side of the range unbounded; both bounds are inclusive.
	BarsForInstrument(ctx context.Context, instrumentID int64, from, to time.Time) ([]models.PriceBar, error)

	Health(ctx context.Context) error
	Close() error
}

// SignalStore persists trading signals.
type SignalStore interface {
	CreateSignal(ctx context.Context, spec models.SignalSpec) (*models.Signal, error)
}

// Sink receives successfully committed bars for downstream consumers
// (event bus, analytics store). Sink failures never fail an ingestion.
type Sink interface {
	Archive(ctx context.Context, symbol string, bars []models.PriceBar) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordBarsIngested(symbol string, n int)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
