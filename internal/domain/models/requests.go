package models

// ListInstrumentsRequest is the query contract for GET /api/instruments.
type ListInstrumentsRequest struct {
	Offset int `query:"offset" validate:"gte=0"`
	Limit  int `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// BarsRequest is the query contract for GET /api/bars. From and To are
// independent inclusive bounds; either may be omitted.
type BarsRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	From   string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}
