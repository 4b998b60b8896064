package connectors

// Central-bank FX feed. The bank publishes one XML document per trading
// day with ForexBuying/ForexSelling per currency. Values use plain
// dot-decimal formatting, so they are parsed directly rather than through
// the localized-price parser. A 404 on a dated document means "no data
// for this date" (weekend, holiday) and maps to ErrNoData.

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"quotefeed/src/model"
	"quotefeed/src/normalize"
)

const tcmbSourceName = "tcmb"

var tcmbCodeToInstrument = map[string]string{
	"USD": "usd",
	"EUR": "eur",
	"GBP": "gbp",
	"CHF": "chf",
	"JPY": "jpy",
	"SAR": "sar",
}

// tcmbCross derives currency pairs from two already-normalized legs
// sharing the TRY quote currency.
var tcmbCross = []struct {
	Numerator   string
	Denominator string
	Key         string
}{
	{Numerator: "eur", Denominator: "usd", Key: "eurusd"},
}

type tcmbDocument struct {
	XMLName    xml.Name       `xml:"Tarih_Date"`
	Currencies []tcmbCurrency `xml:"Currency"`
}

type tcmbCurrency struct {
	Code         string `xml:"CurrencyCode,attr"`
	Unit         string `xml:"Unit"`
	ForexBuying  string `xml:"ForexBuying"`
	ForexSelling string `xml:"ForexSelling"`
}

type TCMBConnector struct {
	http    *resty.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewTCMBConnector(cfg Config) *TCMBConnector {
	perSecond := cfg.ArchiveRatePerS
	if perSecond <= 0 {
		perSecond = 1
	}
	return &TCMBConnector{
		http:    newRestyClient(cfg.TCMBBaseURL, cfg.HTTPTimeout, cfg.RetryCount),
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		now:     time.Now,
	}
}

func (c *TCMBConnector) Name() string {
	return tcmbSourceName
}

// FetchCurrent fetches today's document.
func (c *TCMBConnector) FetchCurrent(ctx context.Context) ([]model.NormalizedQuote, error) {
	return c.fetchDocument(ctx, "/kurlar/today.xml", c.now().Unix())
}

// FetchForDate fetches the document for a specific day. The bank encodes
// the date into the URL path; missing days return 404. Quotes carry the
// requested date as their timestamp.
func (c *TCMBConnector) FetchForDate(ctx context.Context, date time.Time) ([]model.NormalizedQuote, error) {
	path := fmt.Sprintf("/kurlar/%s/%s.xml", date.Format("200601"), date.Format("02012006"))
	return c.fetchDocument(ctx, path, date.Unix())
}

// FetchHistory walks the dated documents day by day for one bank
// currency code. Non-trading days are skipped.
func (c *TCMBConnector) FetchHistory(ctx context.Context, instrumentCode string, from, to time.Time) ([]model.NormalizedQuote, error) {
	instrumentKey, ok := tcmbCodeToInstrument[instrumentCode]
	if !ok {
		return nil, fmt.Errorf("tcmb: unknown currency code %q", instrumentCode)
	}

	var out []model.NormalizedQuote
	for day := from.UTC().Truncate(24 * time.Hour); !day.After(to); day = day.AddDate(0, 0, 1) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		quotes, err := c.FetchForDate(ctx, day)
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, q := range quotes {
			if q.InstrumentKey == instrumentKey {
				out = append(out, q)
				break
			}
		}
	}
	return out, nil
}

func (c *TCMBConnector) fetchDocument(ctx context.Context, path string, ts int64) ([]model.NormalizedQuote, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/xml").
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("tcmb request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		// Non-trading day, not an error.
		return nil, ErrNoData
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("tcmb returned HTTP %d: %s", resp.StatusCode(), resp.Body())
	}

	var doc tcmbDocument
	if err := xml.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("tcmb xml unmarshal failed: %w", err)
	}

	byKey := make(map[string]model.NormalizedQuote, len(doc.Currencies))

	for _, cur := range doc.Currencies {
		instrumentKey, ok := tcmbCodeToInstrument[cur.Code]
		if !ok {
			continue
		}

		buy := parseTCMBValue(cur.ForexBuying)
		sell := parseTCMBValue(cur.ForexSelling)
		if buy == nil && sell == nil {
			logger.WithField("code", cur.Code).
				Warn("tcmb: currency has neither buying nor selling value, skipping")
			continue
		}

		q := model.NormalizedQuote{
			InstrumentKey: instrumentKey,
			Timestamp:     ts,
			Buy:           buy,
			Sell:          sell,
			Source:        tcmbSourceName,
		}
		switch {
		case buy != nil && sell != nil:
			q.Price = normalize.MidPrice(*buy, *sell)
		case sell != nil:
			q.Price = *sell
		default:
			q.Price = *buy
		}

		byKey[instrumentKey] = q
	}

	quotes := make([]model.NormalizedQuote, 0, len(byKey)+len(tcmbCross))
	for _, q := range byKey {
		quotes = append(quotes, q)
	}

	for _, cr := range tcmbCross {
		num, okN := byKey[cr.Numerator]
		den, okD := byKey[cr.Denominator]
		if !okN || !okD {
			continue
		}
		cross, err := normalize.DeriveCross(num, den, cr.Key)
		if err != nil {
			logger.WithField("pair", cr.Key).WithError(err).
				Warn("tcmb: skipping cross rate")
			continue
		}
		quotes = append(quotes, cross)
	}

	return quotes, nil
}

func parseTCMBValue(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
