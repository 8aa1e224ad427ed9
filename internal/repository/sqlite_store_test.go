package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "barpull_test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateAndGetInstrument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateInstrument(ctx, models.InstrumentSpec{
		Symbol: "AAPL", Name: "Apple Inc.", AssetClass: "Stock",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	got, err := s.InstrumentBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil {
		t.Fatalf("expected instrument")
	}
	if got.ID != created.ID || got.Symbol != "AAPL" || got.Name != "Apple Inc." || got.AssetClass != "Stock" {
		t.Fatalf("unexpected instrument %+v", got)
	}
}

func TestInstrumentBySymbolAbsent(t *testing.T) {
	s := newTestStore(t)

	got, err := s.InstrumentBySymbol(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("absence must not be an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestCreateInstrumentDuplicateSymbol(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateInstrument(ctx, models.InstrumentSpec{Symbol: "SPY"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateInstrument(ctx, models.InstrumentSpec{Symbol: "SPY"})
	if err == nil {
		t.Fatalf("expected constraint violation")
	}
	if !errors.Is(err, domrepo.ErrConstraint) {
		t.Fatalf("expected ErrConstraint, got %v", err)
	}
}

func TestListInstruments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, sym := range []string{"A", "B", "C", "D"} {
		if _, err := s.CreateInstrument(ctx, models.InstrumentSpec{Symbol: sym}); err != nil {
			t.Fatalf("create %s: %v", sym, err)
		}
	}

	all, err := s.ListInstruments(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4, got %d", len(all))
	}
	for i, want := range []string{"A", "B", "C", "D"} {
		if all[i].Symbol != want {
			t.Fatalf("expected insertion order, got %v", all)
		}
	}

	page, err := s.ListInstruments(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].Symbol != "B" || page[1].Symbol != "C" {
		t.Fatalf("unexpected page %v", page)
	}
}

func TestBulkInsertBars(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inst, err := s.CreateInstrument(ctx, models.InstrumentSpec{Symbol: "QQQ"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	specs := []models.PriceBarSpec{
		{InstrumentID: inst.ID, Date: day(2024, 3, 1), Open: 100, High: 110, Low: 99, Close: 105, Volume: 10000},
		{InstrumentID: inst.ID, Date: day(2024, 3, 2), Open: 105, High: 115, Low: 103, Close: 110, Volume: 12000},
		{InstrumentID: inst.ID, Date: day(2024, 3, 3), Open: 110, High: 112, Low: 101, Close: 102, Volume: 8000},
	}
	bars, err := s.BulkInsertBars(ctx, specs)
	if err != nil {
		t.Fatalf("bulk insert: %v", err)
	}
	if len(bars) != len(specs) {
		t.Fatalf("expected %d bars, got %d", len(specs), len(bars))
	}
	for i, bar := range bars {
		if bar.ID == 0 {
			t.Fatalf("bar %d missing id", i)
		}
		if !bar.Date.Equal(specs[i].Date) {
			t.Fatalf("order not preserved at %d", i)
		}
	}

	stored, err := s.BarsForInstrument(ctx, inst.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("round trip expected 3 rows, got %d", len(stored))
	}
	if stored[1].Close != 110 || stored[1].Volume != 12000 {
		t.Fatalf("field values not preserved: %+v", stored[1])
	}
}

func TestBulkInsertBarsEmpty(t *testing.T) {
	s := newTestStore(t)

	bars, err := s.BulkInsertBars(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty insert: %v", err)
	}
	if len(bars) != 0 {
		t.Fatalf("expected no bars")
	}
}

func TestBulkInsertBarsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inst, err := s.CreateInstrument(ctx, models.InstrumentSpec{Symbol: "IWM"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Second spec violates the foreign key, so the whole batch must roll back.
	specs := []models.PriceBarSpec{
		{InstrumentID: inst.ID, Date: day(2024, 3, 1), Close: 100},
		{InstrumentID: inst.ID + 999, Date: day(2024, 3, 2), Close: 101},
	}
	if _, err := s.BulkInsertBars(ctx, specs); err == nil {
		t.Fatalf("expected batch failure")
	}

	stored, err := s.BarsForInstrument(ctx, inst.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("partial commit: %d rows survived", len(stored))
	}
}

func TestBarsDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inst, err := s.CreateInstrument(ctx, models.InstrumentSpec{Symbol: "DIA"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var specs []models.PriceBarSpec
	for d := 1; d <= 5; d++ {
		specs = append(specs, models.PriceBarSpec{
			InstrumentID: inst.ID, Date: day(2024, 6, d), Close: float64(d),
		})
	}
	if _, err := s.BulkInsertBars(ctx, specs); err != nil {
		t.Fatalf("insert: %v", err)
	}

	cases := []struct {
		name     string
		from, to time.Time
		want     []float64
	}{
		{"unbounded", time.Time{}, time.Time{}, []float64{1, 2, 3, 4, 5}},
		{"from only", day(2024, 6, 3), time.Time{}, []float64{3, 4, 5}},
		{"to only", time.Time{}, day(2024, 6, 2), []float64{1, 2}},
		{"both inclusive", day(2024, 6, 2), day(2024, 6, 4), []float64{2, 3, 4}},
		{"empty window", day(2024, 6, 20), day(2024, 6, 30), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bars, err := s.BarsForInstrument(ctx, inst.ID, tc.from, tc.to)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(bars) != len(tc.want) {
				t.Fatalf("expected %d bars, got %d", len(tc.want), len(bars))
			}
			for i, want := range tc.want {
				if bars[i].Close != want {
					t.Fatalf("wrong order/content at %d: %+v", i, bars)
				}
			}
		})
	}
}

func TestDuplicateDateRowsAllowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inst, err := s.CreateInstrument(ctx, models.InstrumentSpec{Symbol: "GLD"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	spec := models.PriceBarSpec{InstrumentID: inst.ID, Date: day(2024, 1, 15), Close: 180}
	for i := 0; i < 2; i++ {
		if _, err := s.BulkInsertBars(ctx, []models.PriceBarSpec{spec}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	bars, err := s.BarsForInstrument(ctx, inst.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	// Same instrument/date twice is accepted by design.
	if len(bars) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(bars))
	}
}

func TestCreateSignal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inst, err := s.CreateInstrument(ctx, models.InstrumentSpec{Symbol: "TLT"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sig, err := s.CreateSignal(ctx, models.SignalSpec{
		InstrumentID: inst.ID,
		Date:         day(2024, 7, 1),
		SignalType:   "BUY",
		Reason:       "golden cross",
	})
	if err != nil {
		t.Fatalf("create signal: %v", err)
	}
	if sig.ID == 0 || sig.SignalType != "BUY" || sig.Reason != "golden cross" {
		t.Fatalf("unexpected signal %+v", sig)
	}
}
