package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalQuote is one append-only row of the time series. Multiple rows
// may exist for the same (instrument, timestamp) pair when different
// sources observed the same moment; deduplication is a read-time concern.
type HistoricalQuote struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	InstrumentKey string           `gorm:"size:50;not null;index:idx_historical_quotes_instrument_ts,priority:1" json:"instrument_key"`
	Timestamp     int64            `gorm:"not null;index:idx_historical_quotes_instrument_ts,priority:2;index:idx_historical_quotes_ts" json:"timestamp"`
	Price         decimal.Decimal  `gorm:"type:numeric(18,6);not null" json:"price"`
	Buy           *decimal.Decimal `gorm:"type:numeric(18,6)" json:"buy,omitempty"`
	Sell          *decimal.Decimal `gorm:"type:numeric(18,6)" json:"sell,omitempty"`
	Source        string           `gorm:"size:50;not null;index:idx_historical_quotes_source" json:"source"`
	Raw           string           `gorm:"type:text" json:"-"`
	BatchID       string           `gorm:"size:36;index:idx_historical_quotes_batch" json:"batch_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (HistoricalQuote) TableName() string {
	return "historical_quotes"
}
