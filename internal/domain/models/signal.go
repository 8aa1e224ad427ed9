package models

import "time"

// Signal is a recorded trading recommendation for an instrument on a date.
// Nothing in this service generates signals yet; the storage path exists for
// the signal-generation component that will.
type Signal struct {
	ID           int64     `json:"id"`
	InstrumentID int64     `json:"instrument_id"`
	Date         time.Time `json:"date"`
	SignalType   string    `json:"signal_type"`
	Reason       string    `json:"reason"`
}

// SignalSpec carries the fields needed to persist a signal.
type SignalSpec struct {
	InstrumentID int64
	Date         time.Time
	SignalType   string
	Reason       string
}
