package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	"BarPull/pkg/util"
)

// ClickHouseSink mirrors committed bars into an append-only MergeTree table
// for analytics. SQLite stays the system of record; this copy carries no
// uniqueness guarantees and tolerates replays.
type ClickHouseSink struct {
	db    *sql.DB
	table string
}

// ArchiveSchema are the idempotent statements that prepare the archive table.
func ArchiveSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s
			(symbol String, instrument_id Int64, date Date,
			 open Float64, high Float64, low Float64, close Float64, volume Int64)
			ENGINE=MergeTree ORDER BY (symbol, date)`, table),
	}
}

// NewClickHouseSink creates a ClickHouse-backed sink writing to table
// (fully qualified, e.g. "barpull.bars_archive").
func NewClickHouseSink(db *sql.DB, table string) domrepo.Sink {
	return &ClickHouseSink{db: db, table: table}
}

func (s *ClickHouseSink) Archive(ctx context.Context, symbol string, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*8)
	for _, bar := range bars {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			symbol,
			bar.InstrumentID,
			util.FormatDate(bar.Date),
			bar.Open,
			bar.High,
			bar.Low,
			bar.Close,
			bar.Volume,
		)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (symbol, instrument_id, date, open, high, low, close, volume) VALUES %s",
		s.table, strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("archive bars: %w", err)
	}
	return nil
}

func (s *ClickHouseSink) Close() error {
	return s.db.Close()
}
