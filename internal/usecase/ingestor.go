package usecase

import (
	"context"
	"fmt"
	"time"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	xlogger "BarPull/pkg/logger"
)

// Ingestor pulls daily bars for a symbol from the fetch capability and makes
// them durable, creating the owning instrument on first sight.
type Ingestor struct {
	fetcher domrepo.BarFetcher
	store   domrepo.MarketStore
	sink    domrepo.Sink
	metrics domrepo.Metrics
	logger  *xlogger.Logger

	// Placeholder metadata for auto-created instruments, pending a real
	// instrument-metadata source.
	nameTemplate string
	assetClass   string
}

// Result is the per-symbol outcome of a batch ingestion.
type Result struct {
	Symbol string
	Bars   int
	Err    error
}

// NewIngestor wires an orchestrator. sink may be nil to disable mirroring.
func NewIngestor(
	fetcher domrepo.BarFetcher,
	store domrepo.MarketStore,
	sink domrepo.Sink,
	metrics domrepo.Metrics,
	logger *xlogger.Logger,
	nameTemplate string,
	assetClass string,
) *Ingestor {
	if nameTemplate == "" {
		nameTemplate = "%s Name"
	}
	if assetClass == "" {
		assetClass = "Unknown"
	}
	return &Ingestor{
		fetcher:      fetcher,
		store:        store,
		sink:         sink,
		metrics:      metrics,
		logger:       logger,
		nameTemplate: nameTemplate,
		assetClass:   assetClass,
	}
}

// Ingest fetches bars for one symbol and persists them in a single
// transaction. A fetch failure propagates with nothing written; an empty
// fetch is a no-op success. The count of persisted bars is returned.
func (ing *Ingestor) Ingest(ctx context.Context, symbol string) (int, error) {
	start := time.Now()

	raw, err := ing.fetcher.FetchDailyBars(ctx, symbol)
	if err != nil {
		ing.metrics.RecordError("fetch")
		return 0, fmt.Errorf("fetch %s from %s: %w", symbol, ing.fetcher.Name(), err)
	}
	if len(raw) == 0 {
		ing.logger.Info("no new data for symbol", xlogger.String("symbol", symbol))
		return 0, nil
	}

	inst, err := ing.store.InstrumentBySymbol(ctx, symbol)
	if err != nil {
		ing.metrics.RecordError("store")
		return 0, fmt.Errorf("resolve instrument %s: %w", symbol, err)
	}
	if inst == nil {
		ing.logger.Info("instrument not found, creating",
			xlogger.String("symbol", symbol),
			xlogger.String("asset_class", ing.assetClass))
		inst, err = ing.store.CreateInstrument(ctx, models.InstrumentSpec{
			Symbol:     symbol,
			Name:       fmt.Sprintf(ing.nameTemplate, symbol),
			AssetClass: ing.assetClass,
		})
		if err != nil {
			ing.metrics.RecordError("store")
			return 0, fmt.Errorf("create instrument %s: %w", symbol, err)
		}
	}

	specs := make([]models.PriceBarSpec, len(raw))
	for i, bar := range raw {
		specs[i] = models.PriceBarSpec{
			InstrumentID: inst.ID,
			Date:         bar.Date,
			Open:         bar.Open,
			High:         bar.High,
			Low:          bar.Low,
			Close:        bar.Close,
			Volume:       bar.Volume,
		}
	}

	persisted, err := ing.store.BulkInsertBars(ctx, specs)
	if err != nil {
		ing.metrics.RecordError("store")
		return 0, fmt.Errorf("persist bars for %s: %w", symbol, err)
	}

	ing.metrics.RecordBarsIngested(symbol, len(persisted))
	ing.metrics.RecordLastClose(symbol, persisted[len(persisted)-1].Close)
	ing.metrics.RecordLatency("ingest", time.Since(start).Seconds())

	// Mirroring is best-effort: the bars are already committed.
	if ing.sink != nil {
		if err := ing.sink.Archive(ctx, symbol, persisted); err != nil {
			ing.metrics.RecordError("archive")
			ing.logger.Warn("archive sink failed",
				xlogger.String("symbol", symbol), xlogger.Error(err))
		}
	}

	ing.logger.Info("ingested bars",
		xlogger.String("symbol", symbol),
		xlogger.Int("bars", len(persisted)),
		xlogger.Duration("duration_ms", time.Since(start)))
	return len(persisted), nil
}

// Close releases the store and sink owned by the ingestor.
func (ing *Ingestor) Close() error {
	if ing.sink != nil {
		if err := ing.sink.Close(); err != nil {
			ing.logger.Warn("sink close error", xlogger.Error(err))
		}
	}
	return ing.store.Close()
}

// IngestMany runs Ingest for each symbol in order. A failure for one symbol
// is caught and reported in its Result; the remaining symbols still run.
func (ing *Ingestor) IngestMany(ctx context.Context, symbols []string) []Result {
	results := make([]Result, 0, len(symbols))
	for _, symbol := range symbols {
		n, err := ing.Ingest(ctx, symbol)
		if err != nil {
			ing.logger.Error("ingest failed",
				xlogger.String("symbol", symbol), xlogger.Error(err))
		}
		results = append(results, Result{Symbol: symbol, Bars: n, Err: err})
	}
	return results
}
