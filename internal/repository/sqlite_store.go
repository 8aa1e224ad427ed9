package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	"BarPull/pkg/util"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DefaultListLimit is applied when a caller passes a non-positive limit.
const DefaultListLimit = 100

// SQLiteStore implements MarketStore and SignalStore over a single SQLite
// database file (modernc.org/sqlite, no CGo). Callers always receive detached
// value records; rows never escape as live handles.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
// Pragmas go through the DSN so every pooled connection gets them: WAL keeps
// readers unblocked while the ingest CLI writes, foreign_keys guards the
// instrument references.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS instruments (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL UNIQUE,
			name        TEXT,
			asset_class TEXT
		)`,

		// No uniqueness on (instrument_id, date): re-ingesting a date appends
		// another row. Corrections and multi-vendor feeds rely on this.
		`CREATE TABLE IF NOT EXISTS market_data (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			instrument_id INTEGER NOT NULL REFERENCES instruments(id),
			date          TEXT NOT NULL,
			open          REAL,
			high          REAL,
			low           REAL,
			close         REAL,
			volume        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_data_instrument_date ON market_data(instrument_id, date)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			instrument_id INTEGER NOT NULL REFERENCES instruments(id),
			date          TEXT NOT NULL,
			signal_type   TEXT NOT NULL,
			reason        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_instrument_date ON signals(instrument_id, date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// CreateInstrument persists a new instrument. A duplicate symbol surfaces as
// an error matching domain repository.ErrConstraint.
func (s *SQLiteStore) CreateInstrument(ctx context.Context, spec models.InstrumentSpec) (*models.Instrument, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO instruments (symbol, name, asset_class) VALUES (?, ?, ?)`,
		spec.Symbol, spec.Name, spec.AssetClass,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("instrument %q already exists: %w", spec.Symbol, domrepo.ErrConstraint)
		}
		return nil, fmt.Errorf("create instrument: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("instrument id: %w", err)
	}
	return &models.Instrument{
		ID:         id,
		Symbol:     spec.Symbol,
		Name:       spec.Name,
		AssetClass: spec.AssetClass,
	}, nil
}

// InstrumentBySymbol returns the instrument for symbol, or (nil, nil) when it
// does not exist. Absence is a normal outcome, not an error.
func (s *SQLiteStore) InstrumentBySymbol(ctx context.Context, symbol string) (*models.Instrument, error) {
	var inst models.Instrument
	err := s.db.QueryRowContext(ctx,
		`SELECT id, symbol, name, asset_class FROM instruments WHERE symbol = ?`,
		symbol,
	).Scan(&inst.ID, &inst.Symbol, &inst.Name, &inst.AssetClass)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("instrument by symbol: %w", err)
	}
	return &inst, nil
}

// ListInstruments returns instruments in insertion order, paginated by
// offset/limit. A non-positive limit falls back to DefaultListLimit.
func (s *SQLiteStore) ListInstruments(ctx context.Context, offset, limit int) ([]models.Instrument, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, name, asset_class FROM instruments ORDER BY id ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Instrument, 0, limit)
	for rows.Next() {
		var inst models.Instrument
		if err := rows.Scan(&inst.ID, &inst.Symbol, &inst.Name, &inst.AssetClass); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// BulkInsertBars persists all specs inside one transaction. Either every bar
// commits or none do; returned bars carry assigned ids in input order.
func (s *SQLiteStore) BulkInsertBars(ctx context.Context, specs []models.PriceBarSpec) ([]models.PriceBar, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO market_data (instrument_id, date, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, fmt.Errorf("prepare bar insert: %w", err)
	}
	defer stmt.Close()

	out := make([]models.PriceBar, 0, len(specs))
	for _, spec := range specs {
		res, err := stmt.ExecContext(ctx,
			spec.InstrumentID, util.FormatDate(spec.Date),
			spec.Open, spec.High, spec.Low, spec.Close, spec.Volume,
		)
		if err != nil {
			if isConstraintViolation(err) {
				return nil, fmt.Errorf("insert bar for instrument %d: %w", spec.InstrumentID, domrepo.ErrConstraint)
			}
			return nil, fmt.Errorf("insert bar: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("bar id: %w", err)
		}
		out = append(out, models.PriceBar{
			ID:           id,
			InstrumentID: spec.InstrumentID,
			Date:         spec.Date,
			Open:         spec.Open,
			High:         spec.High,
			Low:          spec.Low,
			Close:        spec.Close,
			Volume:       spec.Volume,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bars: %w", err)
	}
	return out, nil
}

// BarsForInstrument returns bars ascending by date. A zero from/to leaves that
// side unbounded; both bounds are inclusive. No match yields an empty slice.
func (s *SQLiteStore) BarsForInstrument(ctx context.Context, instrumentID int64, from, to time.Time) ([]models.PriceBar, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, instrument_id, date, open, high, low, close, volume
		FROM market_data WHERE instrument_id = ?`)
	args := []any{instrumentID}
	if !from.IsZero() {
		b.WriteString(` AND date >= ?`)
		args = append(args, util.FormatDate(from))
	}
	if !to.IsZero() {
		b.WriteString(` AND date <= ?`)
		args = append(args, util.FormatDate(to))
	}
	b.WriteString(` ORDER BY date ASC, id ASC`)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("bars for instrument: %w", err)
	}
	defer rows.Close()

	var out []models.PriceBar
	for rows.Next() {
		var bar models.PriceBar
		var date string
		if err := rows.Scan(&bar.ID, &bar.InstrumentID, &date,
			&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		d, err := time.Parse(util.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse bar date %q: %w", date, err)
		}
		bar.Date = d
		out = append(out, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// CreateSignal persists a trading signal and returns it with an assigned id.
func (s *SQLiteStore) CreateSignal(ctx context.Context, spec models.SignalSpec) (*models.Signal, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO signals (instrument_id, date, signal_type, reason) VALUES (?, ?, ?, ?)`,
		spec.InstrumentID, util.FormatDate(spec.Date), spec.SignalType, spec.Reason,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("insert signal for instrument %d: %w", spec.InstrumentID, domrepo.ErrConstraint)
		}
		return nil, fmt.Errorf("create signal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("signal id: %w", err)
	}
	return &models.Signal{
		ID:           id,
		InstrumentID: spec.InstrumentID,
		Date:         spec.Date,
		SignalType:   spec.SignalType,
		Reason:       spec.Reason,
	}, nil
}

// Health pings the database.
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT,
			sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "constraint failed")
}
