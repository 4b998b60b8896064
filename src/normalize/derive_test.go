package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotefeed/src/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestDeriveRatioScalesAllSides(t *testing.T) {
	base := model.NormalizedQuote{
		InstrumentKey: "gram",
		Timestamp:     1700000000,
		Price:         dec("2400"),
		Buy:           decPtr("2398"),
		Sell:          decPtr("2402"),
		Source:        "harem",
	}

	derived := DeriveRatio(base, "gram14", KaratRatio14)

	assert.Equal(t, "gram14", derived.InstrumentKey)
	assert.Equal(t, base.Timestamp, derived.Timestamp)
	assert.Equal(t, "harem_calculated", derived.Source)

	ratio := dec("14").Div(dec("24"))
	assert.True(t, derived.Price.Equal(dec("2400").Mul(ratio)), "price = %s", derived.Price)
	require.NotNil(t, derived.Buy)
	assert.True(t, derived.Buy.Equal(dec("2398").Mul(ratio)))
	require.NotNil(t, derived.Sell)
	assert.True(t, derived.Sell.Equal(dec("2402").Mul(ratio)))
}

func TestDeriveRatioPropagatesNilSides(t *testing.T) {
	base := model.NormalizedQuote{
		InstrumentKey: "gram",
		Price:         dec("2400"),
		Source:        "erapi",
	}

	derived := DeriveRatio(base, "ons", TroyOunceGrams)

	assert.Nil(t, derived.Buy)
	assert.Nil(t, derived.Sell)
	assert.True(t, derived.Price.Equal(dec("2400").Mul(TroyOunceGrams)))
}

func TestDeriveCross(t *testing.T) {
	eur := model.NormalizedQuote{
		InstrumentKey: "eur",
		Timestamp:     1700000000,
		Price:         dec("38.5"),
		Buy:           decPtr("38.4"),
		Sell:          decPtr("38.6"),
		Source:        "tcmb",
	}
	usd := model.NormalizedQuote{
		InstrumentKey: "usd",
		Timestamp:     1700000000,
		Price:         dec("35.1"),
		Buy:           decPtr("35.0"),
		Sell:          decPtr("35.2"),
		Source:        "tcmb",
	}

	cross, err := DeriveCross(eur, usd, "eurusd")
	require.NoError(t, err)

	assert.Equal(t, "eurusd", cross.InstrumentKey)
	assert.Equal(t, "tcmb_calculated", cross.Source)

	wantPrice, _ := dec("38.5").Div(dec("35.1")).Float64()
	gotPrice, _ := cross.Price.Float64()
	assert.InDelta(t, wantPrice, gotPrice, 1e-9)

	// bid/ask inversion: buyA/sellB and sellA/buyB
	require.NotNil(t, cross.Buy)
	assert.True(t, cross.Buy.Equal(dec("38.4").Div(dec("35.2"))))
	require.NotNil(t, cross.Sell)
	assert.True(t, cross.Sell.Equal(dec("38.6").Div(dec("35.0"))))
}

func TestDeriveCrossWithoutSpreads(t *testing.T) {
	eur := model.NormalizedQuote{InstrumentKey: "eur", Price: dec("38.5"), Source: "erapi"}
	usd := model.NormalizedQuote{InstrumentKey: "usd", Price: dec("35.1"), Source: "erapi"}

	cross, err := DeriveCross(eur, usd, "eurusd")
	require.NoError(t, err)

	assert.Nil(t, cross.Buy)
	assert.Nil(t, cross.Sell)
}

func TestDeriveCrossZeroDenominator(t *testing.T) {
	eur := model.NormalizedQuote{InstrumentKey: "eur", Price: dec("38.5")}
	usd := model.NormalizedQuote{InstrumentKey: "usd", Price: decimal.Zero}

	_, err := DeriveCross(eur, usd, "eurusd")
	assert.ErrorIs(t, err, ErrZeroDenominator)
}

func TestMidPrice(t *testing.T) {
	mid := MidPrice(dec("2550"), dec("2555"))
	assert.True(t, mid.Equal(dec("2552.5")), "mid = %s", mid)
}
