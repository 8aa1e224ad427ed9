package models

// Instrument is a tradable asset identified by a globally unique symbol.
type Instrument struct {
	ID         int64  `json:"id"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	AssetClass string `json:"asset_class"`
}

// InstrumentSpec carries the fields needed to create an instrument.
// The store assigns the id.
type InstrumentSpec struct {
	Symbol     string
	Name       string
	AssetClass string
}
