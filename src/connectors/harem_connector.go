package connectors

// Live precious-metals feed. The provider publishes a JSON map of its own
// product keys to buy/sell strings in Turkish localized decimal format
// ("2.550,00"). Keys we do not recognize are skipped so upstream
// additions do not break the fetch.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"quotefeed/src/model"
	"quotefeed/src/normalize"
)

const haremSourceName = "harem"

// haremKeyToInstrument maps provider product keys to internal instrument
// keys. One table per connector so provider renames stay isolated here.
var haremKeyToInstrument = map[string]string{
	"ALTIN":       "gram",
	"CEYREK_YENI": "ceyrek",
	"YARIM_YENI":  "yarim",
	"TEK_YENI":    "tam",
	"ATA_YENI":    "ata",
	"ONS":         "ons",
	"GUMUS":       "gumus",
}

// haremDerived lists instruments computed from a base instrument by a
// fixed multiplicative ratio rather than observed upstream.
var haremDerived = []struct {
	Base  string
	Key   string
	Ratio decimal.Decimal
}{
	{Base: "gram", Key: "gram14", Ratio: normalize.KaratRatio14},
}

type haremItem struct {
	Buy  string `json:"alis"`
	Sell string `json:"satis"`
}

type haremResponse struct {
	Data map[string]json.RawMessage `json:"data"`
}

type HaremConnector struct {
	http *resty.Client
	now  func() time.Time
}

func NewHaremConnector(cfg Config) *HaremConnector {
	return &HaremConnector{
		http: newRestyClient(cfg.HaremBaseURL, cfg.HTTPTimeout, cfg.RetryCount),
		now:  time.Now,
	}
}

func (c *HaremConnector) Name() string {
	return haremSourceName
}

func (c *HaremConnector) FetchCurrent(ctx context.Context) ([]model.NormalizedQuote, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get("/ajax/doviz")
	if err != nil {
		return nil, fmt.Errorf("harem request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("harem returned HTTP %d: %s", resp.StatusCode(), resp.Body())
	}

	var decoded haremResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("harem json unmarshal failed: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("harem response has no data field: %s", resp.Body())
	}

	ts := c.now().Unix()
	byKey := make(map[string]model.NormalizedQuote, len(decoded.Data))

	for providerKey, raw := range decoded.Data {
		instrumentKey, ok := haremKeyToInstrument[providerKey]
		if !ok {
			continue
		}

		var item haremItem
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.WithField("key", providerKey).WithError(err).
				Warn("harem: skipping item with unexpected shape")
			continue
		}

		buy, err := normalize.ParsePrice(item.Buy)
		if err != nil {
			logger.WithField("key", providerKey).WithError(err).
				Warn("harem: skipping item with unparseable buy price")
			continue
		}
		sell, err := normalize.ParsePrice(item.Sell)
		if err != nil {
			logger.WithField("key", providerKey).WithError(err).
				Warn("harem: skipping item with unparseable sell price")
			continue
		}

		byKey[instrumentKey] = model.NormalizedQuote{
			InstrumentKey: instrumentKey,
			Timestamp:     ts,
			Price:         normalize.MidPrice(buy, sell),
			Buy:           &buy,
			Sell:          &sell,
			Source:        haremSourceName,
			Raw:           string(raw),
		}
	}

	quotes := make([]model.NormalizedQuote, 0, len(byKey)+len(haremDerived))
	for _, q := range byKey {
		quotes = append(quotes, q)
	}

	for _, d := range haremDerived {
		base, ok := byKey[d.Base]
		if !ok {
			continue
		}
		quotes = append(quotes, normalize.DeriveRatio(base, d.Key, d.Ratio))
	}

	logger.WithFields(logger.Fields{
		"source": haremSourceName,
		"quotes": len(quotes),
	}).Debug("harem fetch complete")

	return quotes, nil
}
