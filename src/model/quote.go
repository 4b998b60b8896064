package model

import (
	"github.com/shopspring/decimal"
)

// NormalizedQuote is the transient value every source adapter emits:
// one observation of one instrument at one point in time. It is consumed
// by the refresher immediately and converted into persisted rows; it is
// never stored as-is.
//
// Price is always set. Buy and Sell are independently optional because
// some sources only publish a single side.
type NormalizedQuote struct {
	InstrumentKey string
	Timestamp     int64 // unix seconds
	Price         decimal.Decimal
	Buy           *decimal.Decimal
	Sell          *decimal.Decimal
	Source        string
	Raw           string // optional raw payload fragment for audit
}

// ToHistorical converts the quote into an append-only historical row.
func (q NormalizedQuote) ToHistorical() HistoricalQuote {
	return HistoricalQuote{
		InstrumentKey: q.InstrumentKey,
		Timestamp:     q.Timestamp,
		Price:         q.Price,
		Buy:           q.Buy,
		Sell:          q.Sell,
		Source:        q.Source,
		Raw:           q.Raw,
	}
}
