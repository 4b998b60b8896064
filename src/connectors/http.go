package connectors

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 4 * time.Second
)

func newRestyClient(baseURL string, timeout time.Duration, retryCount int) *resty.Client {
	if strings.TrimSpace(baseURL) == "" {
		logger.Warn("No base URL provided for connector client")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if retryCount < 0 {
		retryCount = defaultRetryAttempts - 1
	}

	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)
}

// isRetryableResp retries transport errors and 5xx responses. 4xx are
// terminal: a 404 in particular carries meaning (no data for date) and
// must reach the caller untouched.
func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	return r.StatusCode() >= http.StatusInternalServerError
}
