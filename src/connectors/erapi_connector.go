package connectors

// Fallback FX feed, used only when the central-bank feed fails. The
// provider serves one flat rate table against a fixed base currency, so
// TRY-denominated pairs are re-derived algebraically. The feed has no
// spread information: buy and sell are always nil here.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"quotefeed/src/model"
)

const erapiSourceName = "erapi"

// erapiPairs maps internal instrument keys to the reference-currency code
// whose TRY cross they represent. "usd" is the base itself.
var erapiPairs = map[string]string{
	"usd": "USD",
	"eur": "EUR",
	"gbp": "GBP",
	"chf": "CHF",
	"jpy": "JPY",
	"sar": "SAR",
}

type erapiResponse struct {
	Result string             `json:"result"`
	Base   string             `json:"base_code"`
	Rates  map[string]float64 `json:"rates"`
}

type ErapiConnector struct {
	http *resty.Client
	now  func() time.Time
}

func NewErapiConnector(cfg Config) *ErapiConnector {
	return &ErapiConnector{
		http: newRestyClient(cfg.ErapiBaseURL, cfg.HTTPTimeout, cfg.RetryCount),
		now:  time.Now,
	}
}

func (c *ErapiConnector) Name() string {
	return erapiSourceName
}

func (c *ErapiConnector) FetchCurrent(ctx context.Context) ([]model.NormalizedQuote, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get("/v6/latest/USD")
	if err != nil {
		return nil, fmt.Errorf("erapi request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("erapi returned HTTP %d: %s", resp.StatusCode(), resp.Body())
	}

	var decoded erapiResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("erapi json unmarshal failed: %w", err)
	}
	if decoded.Result != "success" {
		return nil, fmt.Errorf("erapi returned result=%q", decoded.Result)
	}

	try, ok := decoded.Rates["TRY"]
	if !ok || try <= 0 {
		return nil, fmt.Errorf("erapi response has no usable TRY rate")
	}
	tryRate := decimal.NewFromFloat(try)

	ts := c.now().Unix()
	quotes := make([]model.NormalizedQuote, 0, len(erapiPairs)+1)

	for instrumentKey, code := range erapiPairs {
		var price decimal.Decimal
		if code == "USD" {
			price = tryRate
		} else {
			rate, ok := decoded.Rates[code]
			if !ok || rate <= 0 {
				logger.WithField("code", code).
					Warn("erapi: missing or non-positive rate, skipping pair")
				continue
			}
			// USD->TRY divided by USD->code gives code->TRY.
			price = tryRate.Div(decimal.NewFromFloat(rate))
		}

		quotes = append(quotes, model.NormalizedQuote{
			InstrumentKey: instrumentKey,
			Timestamp:     ts,
			Price:         price,
			Source:        erapiSourceName,
		})
	}

	if eur, ok := decoded.Rates["EUR"]; ok && eur > 0 {
		quotes = append(quotes, model.NormalizedQuote{
			InstrumentKey: "eurusd",
			Timestamp:     ts,
			Price:         decimal.NewFromInt(1).Div(decimal.NewFromFloat(eur)),
			Source:        erapiSourceName,
		})
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("erapi produced no quotes")
	}
	return quotes, nil
}
