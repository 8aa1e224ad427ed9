package models

import "time"

// DailyBar is one raw OHLCV bar as returned by a market-data provider.
// Field values are carried into storage verbatim.
type DailyBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceBar is a persisted daily bar owned by an instrument.
type PriceBar struct {
	ID           int64     `json:"id"`
	InstrumentID int64     `json:"instrument_id"`
	Date         time.Time `json:"date"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       int64     `json:"volume"`
}

// PriceBarSpec carries the fields needed to persist a bar.
type PriceBarSpec struct {
	InstrumentID int64
	Date         time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
}
