package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LatestSnapshot holds the single most recent quote per instrument,
// overwritten in place on every successful refresh. PrevPrice and
// PrevTimestamp carry the reference quote from roughly 24 hours earlier,
// resolved from the historical series at write time; both are nil when
// no historical row fell inside the lookup window.
type LatestSnapshot struct {
	InstrumentKey string           `gorm:"primaryKey;size:50" json:"instrument_key"`
	Timestamp     int64            `gorm:"not null" json:"timestamp"`
	Price         decimal.Decimal  `gorm:"type:numeric(18,6);not null" json:"price"`
	Buy           *decimal.Decimal `gorm:"type:numeric(18,6)" json:"buy,omitempty"`
	Sell          *decimal.Decimal `gorm:"type:numeric(18,6)" json:"sell,omitempty"`
	PrevPrice     *decimal.Decimal `gorm:"type:numeric(18,6)" json:"prev_price,omitempty"`
	PrevTimestamp *int64           `json:"prev_timestamp,omitempty"`
	Source        string           `gorm:"size:50;not null" json:"source"`
	Raw           string           `gorm:"type:text" json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (LatestSnapshot) TableName() string {
	return "latest_snapshots"
}
