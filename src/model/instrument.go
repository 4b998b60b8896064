package model

import "time"

const (
	CategoryMetals = "metals"
	CategoryFX     = "fx"
)

// Instrument is one priced series: a gold product or a currency pair.
// Rows are seeded at startup and referenced by key from the historical
// and snapshot tables. Instruments are soft-deactivated, never deleted.
type Instrument struct {
	Key        string `gorm:"primaryKey;size:50" json:"key"`
	Category   string `gorm:"size:20;not null;index:idx_instruments_category_sort,priority:1" json:"category"`
	Name       string `gorm:"size:100;not null" json:"name"`
	MarketCode string `gorm:"size:50" json:"market_code"`
	Currency   string `gorm:"size:10;not null" json:"currency"`
	Unit       string `gorm:"size:20" json:"unit,omitempty"`
	SortOrder  int    `gorm:"not null;default:0;index:idx_instruments_category_sort,priority:2" json:"sort_order"`
	Active     bool   `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Instrument) TableName() string {
	return "instruments"
}
