package normalize

import (
	"errors"

	"github.com/shopspring/decimal"

	"quotefeed/src/model"
)

// CalculatedSuffix tags quotes that were computed from other quotes
// rather than observed directly, so downstream consumers can tell the
// two apart.
const CalculatedSuffix = "_calculated"

var ErrZeroDenominator = errors.New("cross rate denominator is zero")

// KaratRatio14 converts a 24-karat price into its 14-karat equivalent.
var KaratRatio14 = decimal.NewFromInt(14).Div(decimal.NewFromInt(24))

// TroyOunceGrams converts a per-gram price into a per-troy-ounce price.
var TroyOunceGrams = decimal.RequireFromString("31.1034768")

// DeriveRatio produces a new quote for instrumentKey whose price, buy and
// sell are the base quote's values scaled by a fixed ratio. Nil buy/sell
// stay nil. The derived quote carries the base source plus the
// calculated suffix.
func DeriveRatio(base model.NormalizedQuote, instrumentKey string, ratio decimal.Decimal) model.NormalizedQuote {
	derived := model.NormalizedQuote{
		InstrumentKey: instrumentKey,
		Timestamp:     base.Timestamp,
		Price:         base.Price.Mul(ratio),
		Source:        calculatedSource(base.Source),
	}
	if base.Buy != nil {
		buy := base.Buy.Mul(ratio)
		derived.Buy = &buy
	}
	if base.Sell != nil {
		sell := base.Sell.Mul(ratio)
		derived.Sell = &sell
	}
	return derived
}

// DeriveCross computes an A/B cross rate from two quotes sharing a common
// quote currency: price = a.Price / b.Price. Where both legs carry
// spreads the buy and sell sides use bid/ask inversion (buyA/sellB,
// sellA/buyB) so the derived spread stays boundary-correct; otherwise
// they are left nil.
func DeriveCross(a, b model.NormalizedQuote, instrumentKey string) (model.NormalizedQuote, error) {
	if b.Price.IsZero() {
		return model.NormalizedQuote{}, ErrZeroDenominator
	}

	derived := model.NormalizedQuote{
		InstrumentKey: instrumentKey,
		Timestamp:     a.Timestamp,
		Price:         a.Price.Div(b.Price),
		Source:        calculatedSource(a.Source),
	}

	if a.Buy != nil && b.Sell != nil && !b.Sell.IsZero() {
		buy := a.Buy.Div(*b.Sell)
		derived.Buy = &buy
	}
	if a.Sell != nil && b.Buy != nil && !b.Buy.IsZero() {
		sell := a.Sell.Div(*b.Buy)
		derived.Sell = &sell
	}
	return derived, nil
}

// MidPrice returns (buy+sell)/2.
func MidPrice(buy, sell decimal.Decimal) decimal.Decimal {
	return buy.Add(sell).Div(decimal.NewFromInt(2))
}

func calculatedSource(base string) string {
	if base == "" {
		return "unknown" + CalculatedSuffix
	}
	return base + CalculatedSuffix
}
