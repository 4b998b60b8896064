package connectors

// Secondary historical archive. No auth, but the payload is not clean
// JSON: the endpoint returns a JavaScript block with parallel arrays of
// localized date strings and localized price strings, so both are pulled
// out with pattern matching. Month names come back with mangled UTF-8
// often enough that the date parser tolerates mojibake.

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"quotefeed/src/model"
	"quotefeed/src/normalize"
)

const bigparaSourceName = "bigpara"

var (
	bigparaDatesRe  = regexp.MustCompile(`"(?:dates|tarihler)"\s*:\s*\[(.*?)\]`)
	bigparaPricesRe = regexp.MustCompile(`"(?:prices|fiyatlar)"\s*:\s*\[(.*?)\]`)
	quotedItemRe    = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

type BigparaConnector struct {
	http    *resty.Client
	limiter *rate.Limiter
}

func NewBigparaConnector(cfg Config) *BigparaConnector {
	perSecond := cfg.ArchiveRatePerS
	if perSecond <= 0 {
		perSecond = 1
	}
	return &BigparaConnector{
		http:    newRestyClient(cfg.BigparaBaseURL, cfg.HTTPTimeout, cfg.RetryCount),
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (c *BigparaConnector) Name() string {
	return bigparaSourceName
}

func (c *BigparaConnector) FetchHistory(ctx context.Context, instrumentCode string, from, to time.Time) ([]model.NormalizedQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	days := int(math.Ceil(to.Sub(from).Hours() / 24))
	if days < 1 {
		days = 1
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("sembol", instrumentCode).
		SetQueryParam("gun", fmt.Sprintf("%d", days)).
		Get("/api/altin/grafik")
	if err != nil {
		return nil, fmt.Errorf("bigpara request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("bigpara returned HTTP %d: %s", resp.StatusCode(), truncate(resp.Body(), 256))
	}

	return c.parseScript(instrumentCode, string(resp.Body()), from, to)
}

func (c *BigparaConnector) parseScript(instrumentCode, body string, from, to time.Time) ([]model.NormalizedQuote, error) {
	dates := extractQuotedArray(bigparaDatesRe, body)
	prices := extractQuotedArray(bigparaPricesRe, body)
	if dates == nil || prices == nil {
		return nil, fmt.Errorf("bigpara payload has no recognizable date/price arrays")
	}
	if len(dates) != len(prices) {
		return nil, fmt.Errorf("bigpara arrays are not parallel: %d dates vs %d prices", len(dates), len(prices))
	}

	quotes := make([]model.NormalizedQuote, 0, len(dates))
	skipped := 0

	for i := range dates {
		day, err := normalize.ParseFlexibleDate(dates[i])
		if err != nil {
			skipped++
			logger.WithFields(logger.Fields{"code": instrumentCode, "date": dates[i]}).
				Warn("bigpara: skipping row with unparseable date")
			continue
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		price, err := normalize.ParsePrice(prices[i])
		if err != nil {
			skipped++
			logger.WithFields(logger.Fields{"code": instrumentCode, "price": prices[i]}).
				Warn("bigpara: skipping row with unparseable price")
			continue
		}

		quotes = append(quotes, model.NormalizedQuote{
			Timestamp: day.Unix(),
			Price:     price,
			Source:    bigparaSourceName,
		})
	}

	if skipped > 0 {
		logger.WithFields(logger.Fields{
			"code":    instrumentCode,
			"skipped": skipped,
			"kept":    len(quotes),
		}).Warn("bigpara: dropped unparseable rows")
	}

	return quotes, nil
}

func extractQuotedArray(re *regexp.Regexp, body string) []string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	items := quotedItemRe.FindAllStringSubmatch(m[1], -1)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, strings.TrimSpace(it[1]))
	}
	return out
}
