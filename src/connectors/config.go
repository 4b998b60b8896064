package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HaremBaseURL string `envconfig:"HAREM_BASE_URL" default:"https://canlipiyasalar.haremaltin.com"`
	TCMBBaseURL  string `envconfig:"TCMB_BASE_URL" default:"https://www.tcmb.gov.tr"`
	ErapiBaseURL string `envconfig:"ERAPI_BASE_URL" default:"https://open.er-api.com"`

	InvestingBaseURL string `envconfig:"INVESTING_BASE_URL" default:"https://tr.investing.com"`
	// Operator-supplied Cloudflare session cookie value. Rotated
	// out-of-band; the system never refreshes it itself.
	InvestingCookie string `envconfig:"INVESTING_SESSION_COOKIE"`

	BigparaBaseURL string `envconfig:"BIGPARA_BASE_URL" default:"https://bigpara.hurriyet.com.tr"`

	HTTPTimeout     time.Duration `envconfig:"CONNECTOR_HTTP_TIMEOUT" default:"15s"`
	RetryCount      int           `envconfig:"CONNECTOR_RETRY_COUNT" default:"2"`
	RetryWait       time.Duration `envconfig:"CONNECTOR_RETRY_WAIT" default:"500ms"`
	RetryMaxWait    time.Duration `envconfig:"CONNECTOR_RETRY_MAX_WAIT" default:"4s"`
	ArchiveRatePerS float64       `envconfig:"ARCHIVE_RATE_PER_SECOND" default:"1"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
