package connectors

// Cloudflare-protected historical archive. Requires an operator-supplied
// session cookie and a realistic browser fingerprint; generic clients get
// the challenge page. Dates and prices arrive in whatever localization
// the archive felt like that day, so every row goes through the flexible
// parsers and bad rows are skipped, not fatal.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"quotefeed/src/model"
	"quotefeed/src/normalize"
)

const (
	investingSourceName = "investing"
	investingDataPath   = "/instruments/HistoricalDataAjax"
)

var investingBrowserHeaders = map[string]string{
	"User-Agent":       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
	"Accept":           "application/json, text/javascript, */*; q=0.01",
	"Accept-Language":  "tr-TR,tr;q=0.9,en;q=0.8",
	"X-Requested-With": "XMLHttpRequest",
}

type investingRow struct {
	Date    string `json:"date"`
	RowDate string `json:"rowDate"`
	Price   string `json:"price"`
	Close   string `json:"last_close"`
}

type InvestingConnector struct {
	http    *resty.Client
	curl    *curlClient
	baseURL string
	cookie  string
	limiter *rate.Limiter
}

// NewInvestingConnector builds the archive connector. The cookie is the
// pre-obtained Cloudflare session value; it is injected here rather than
// read ambiently so tests can pass a fake one.
func NewInvestingConnector(cfg Config) *InvestingConnector {
	perSecond := cfg.ArchiveRatePerS
	if perSecond <= 0 {
		perSecond = 1
	}

	client := newRestyClient(cfg.InvestingBaseURL, cfg.HTTPTimeout, 0)
	client.SetHeaders(investingBrowserHeaders)

	return &InvestingConnector{
		http:    client,
		curl:    newCurlClient(),
		baseURL: strings.TrimRight(cfg.InvestingBaseURL, "/"),
		cookie:  cfg.InvestingCookie,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (c *InvestingConnector) Name() string {
	return investingSourceName
}

func (c *InvestingConnector) FetchHistory(ctx context.Context, instrumentCode string, from, to time.Time) ([]model.NormalizedQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("curr_id", instrumentCode)
	form.Set("st_date", from.Format("2006-01-02 15:04:05"))
	form.Set("end_date", to.Format("2006-01-02 15:04:05"))
	form.Set("interval_sec", "Daily")
	form.Set("action", "historical_data")

	body, err := c.postForm(ctx, form)
	if err != nil {
		return nil, err
	}
	return c.parseRows(instrumentCode, body)
}

func (c *InvestingConnector) postForm(ctx context.Context, form url.Values) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Origin", c.baseURL).
		SetHeader("Referer", c.baseURL+"/").
		SetHeader("Cookie", "cf_clearance="+c.cookie).
		SetFormDataFromValues(form).
		Post(investingDataPath)

	switch {
	case err != nil:
		logger.WithError(err).Warn("investing: resty transport failed, retrying via curl")
	case isCloudflareBlocked(resp):
		logger.WithField("status", resp.StatusCode()).
			Warn("investing: blocked by edge, retrying via curl")
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("investing returned HTTP %d: %s", resp.StatusCode(), truncate(resp.Body(), 256))
	default:
		return resp.Body(), nil
	}

	headers := make(map[string]string, len(investingBrowserHeaders)+3)
	for k, v := range investingBrowserHeaders {
		headers[k] = v
	}
	headers["Origin"] = c.baseURL
	headers["Referer"] = c.baseURL + "/"
	headers["Cookie"] = "cf_clearance=" + c.cookie

	return c.curl.PostForm(ctx, c.baseURL+investingDataPath, headers, form)
}

func (c *InvestingConnector) parseRows(instrumentCode string, body []byte) ([]model.NormalizedQuote, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("investing json unmarshal failed: %w: %s", err, truncate(body, 256))
	}

	// The archive has shipped the array under both keys over time.
	raw, ok := envelope["data"]
	if !ok {
		raw, ok = envelope["historical"]
	}
	if !ok {
		return nil, fmt.Errorf("investing response has neither data nor historical field: %s", truncate(body, 256))
	}

	var rows []investingRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("investing rows unmarshal failed: %w", err)
	}

	quotes := make([]model.NormalizedQuote, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		dateStr := row.Date
		if dateStr == "" {
			dateStr = row.RowDate
		}
		priceStr := row.Price
		if priceStr == "" {
			priceStr = row.Close
		}

		day, err := normalize.ParseFlexibleDate(dateStr)
		if err != nil {
			skipped++
			logger.WithFields(logger.Fields{"code": instrumentCode, "date": dateStr}).
				Warn("investing: skipping row with unparseable date")
			continue
		}
		price, err := normalize.ParsePrice(priceStr)
		if err != nil {
			skipped++
			logger.WithFields(logger.Fields{"code": instrumentCode, "price": priceStr}).
				Warn("investing: skipping row with unparseable price")
			continue
		}

		rawRow, _ := json.Marshal(row)
		quotes = append(quotes, model.NormalizedQuote{
			Timestamp: day.Unix(),
			Price:     price,
			Source:    investingSourceName,
			Raw:       string(rawRow),
		})
	}

	if skipped > 0 {
		logger.WithFields(logger.Fields{
			"code":    instrumentCode,
			"skipped": skipped,
			"kept":    len(quotes),
		}).Warn("investing: dropped unparseable rows")
	}

	return quotes, nil
}

func isCloudflareBlocked(resp *resty.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode() == http.StatusForbidden || resp.StatusCode() == http.StatusServiceUnavailable {
		return true
	}
	body := string(resp.Body())
	return strings.Contains(body, "cf-chl") || strings.Contains(body, "Just a moment")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
