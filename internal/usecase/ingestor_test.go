package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"BarPull/internal/domain/models"
	"BarPull/internal/repository"
	xlogger "BarPull/pkg/logger"
)

type fakeFetcher struct {
	bars map[string][]models.DailyBar
	err  error
}

func (f *fakeFetcher) FetchDailyBars(_ context.Context, symbol string) ([]models.DailyBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[symbol], nil
}

func (f *fakeFetcher) Name() string { return "fake" }

type nopMetrics struct{}

func (nopMetrics) RecordBarsIngested(string, int)  {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastClose(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

type captureSink struct {
	batches [][]models.PriceBar
	err     error
}

func (s *captureSink) Archive(_ context.Context, _ string, bars []models.PriceBar) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, bars)
	return nil
}

func (s *captureSink) Close() error { return nil }

func testStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	s, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "ingest_test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIngestCreatesInstrumentAndBars(t *testing.T) {
	store := testStore(t)
	fetcher := &fakeFetcher{bars: map[string][]models.DailyBar{
		"AAPL": {
			{Date: day(2024, 5, 1), Open: 100, High: 110, Low: 99, Close: 105, Volume: 10000},
			{Date: day(2024, 5, 2), Open: 105, High: 115, Low: 103, Close: 110, Volume: 12000},
		},
	}}
	ing := NewIngestor(fetcher, store, nil, nopMetrics{}, testLogger(t), "%s Name", "Unknown")

	n, err := ing.Ingest(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 bars ingested, got %d", n)
	}

	inst, err := store.InstrumentBySymbol(context.Background(), "AAPL")
	if err != nil || inst == nil {
		t.Fatalf("instrument missing: %v", err)
	}
	if inst.Name != "AAPL Name" || inst.AssetClass != "Unknown" {
		t.Fatalf("placeholder metadata not applied: %+v", inst)
	}

	bars, err := store.BarsForInstrument(context.Background(), inst.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("query bars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Open != 100 || bars[1].Close != 110 || bars[1].Volume != 12000 {
		t.Fatalf("fetched values not preserved: %+v", bars)
	}
}

func TestIngestExistingInstrument(t *testing.T) {
	store := testStore(t)
	existing, err := store.CreateInstrument(context.Background(), models.InstrumentSpec{
		Symbol: "OLDCOIN", Name: "Old Coin", AssetClass: "Crypto",
	})
	if err != nil {
		t.Fatalf("seed instrument: %v", err)
	}

	fetcher := &fakeFetcher{bars: map[string][]models.DailyBar{
		"OLDCOIN": {{Date: day(2024, 5, 3), Close: 205, Volume: 5000}},
	}}
	ing := NewIngestor(fetcher, store, nil, nopMetrics{}, testLogger(t), "", "")

	if _, err := ing.Ingest(context.Background(), "OLDCOIN"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	all, err := store.ListInstruments(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("no new instrument expected, got %d", len(all))
	}
	if all[0].Name != "Old Coin" {
		t.Fatalf("existing metadata must survive: %+v", all[0])
	}

	bars, err := store.BarsForInstrument(context.Background(), existing.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 205 || bars[0].Volume != 5000 {
		t.Fatalf("unexpected bars %+v", bars)
	}
}

func TestIngestFetchFailureWritesNothing(t *testing.T) {
	store := testStore(t)
	fetchErr := errors.New("provider down")
	ing := NewIngestor(&fakeFetcher{err: fetchErr}, store, nil, nopMetrics{}, testLogger(t), "", "")

	_, err := ing.Ingest(context.Background(), "FAILCOIN")
	if err == nil {
		t.Fatalf("expected fetch failure to propagate")
	}
	if !errors.Is(err, fetchErr) {
		t.Fatalf("underlying error lost: %v", err)
	}

	all, err := store.ListInstruments(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("no writes expected, found %d instruments", len(all))
	}
}

func TestIngestEmptyFetchIsNoOp(t *testing.T) {
	store := testStore(t)
	ing := NewIngestor(&fakeFetcher{bars: map[string][]models.DailyBar{}}, store, nil, nopMetrics{}, testLogger(t), "", "")

	n, err := ing.Ingest(context.Background(), "NODATACOIN")
	if err != nil {
		t.Fatalf("empty fetch must not error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 bars, got %d", n)
	}

	all, err := store.ListInstruments(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("no instrument expected, got %d", len(all))
	}
}

func TestIngestManyIsolatesFailures(t *testing.T) {
	store := testStore(t)
	fetcher := &fakeFetcher{bars: map[string][]models.DailyBar{
		"GOOD": {{Date: day(2024, 5, 1), Close: 42, Volume: 7}},
		// FAILCOIN absent: simulate failure via a wrapper below instead.
	}}
	failing := &flakyFetcher{inner: fetcher, failFor: "FAILCOIN"}
	ing := NewIngestor(failing, store, nil, nopMetrics{}, testLogger(t), "", "")

	results := ing.IngestMany(context.Background(), []string{"FAILCOIN", "GOOD"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatalf("FAILCOIN should have failed")
	}
	if results[1].Err != nil || results[1].Bars != 1 {
		t.Fatalf("GOOD should have succeeded after the failure: %+v", results[1])
	}

	inst, err := store.InstrumentBySymbol(context.Background(), "GOOD")
	if err != nil || inst == nil {
		t.Fatalf("GOOD instrument missing: %v", err)
	}
}

type flakyFetcher struct {
	inner   *fakeFetcher
	failFor string
}

func (f *flakyFetcher) FetchDailyBars(ctx context.Context, symbol string) ([]models.DailyBar, error) {
	if symbol == f.failFor {
		return nil, errors.New("simulated provider error")
	}
	return f.inner.FetchDailyBars(ctx, symbol)
}

func (f *flakyFetcher) Name() string { return "flaky" }

func TestIngestSinkFailureDoesNotFailIngest(t *testing.T) {
	store := testStore(t)
	fetcher := &fakeFetcher{bars: map[string][]models.DailyBar{
		"SPY": {{Date: day(2024, 5, 1), Close: 500, Volume: 1}},
	}}
	sink := &captureSink{err: errors.New("broker unreachable")}
	ing := NewIngestor(fetcher, store, sink, nopMetrics{}, testLogger(t), "", "")

	n, err := ing.Ingest(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("sink failure must not fail ingestion: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 bar, got %d", n)
	}
}

func TestIngestForwardsBatchToSink(t *testing.T) {
	store := testStore(t)
	fetcher := &fakeFetcher{bars: map[string][]models.DailyBar{
		"SPY": {
			{Date: day(2024, 5, 1), Close: 500, Volume: 1},
			{Date: day(2024, 5, 2), Close: 501, Volume: 2},
		},
	}}
	sink := &captureSink{}
	ing := NewIngestor(fetcher, store, sink, nopMetrics{}, testLogger(t), "", "")

	if _, err := ing.Ingest(context.Background(), "SPY"); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 2 {
		t.Fatalf("sink did not receive the committed batch: %+v", sink.batches)
	}
	if sink.batches[0][0].ID == 0 {
		t.Fatalf("sink must see assigned ids")
	}
}
