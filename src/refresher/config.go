package refresher

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Minimum gap between two refresh attempts for the same category,
	// regardless of staleness. Stops concurrent stale-checks from
	// stampeding the upstreams.
	Cooldown time.Duration `envconfig:"REFRESH_COOLDOWN" default:"10s"`

	// Age of the last success beyond which RefreshIfStale actually
	// refreshes.
	StalenessThreshold time.Duration `envconfig:"REFRESH_STALENESS_THRESHOLD" default:"15m"`

	MetalsTickPeriod time.Duration `envconfig:"METALS_TICK_PERIOD" default:"5m"`
	FXTickPeriod     time.Duration `envconfig:"FX_TICK_PERIOD" default:"5m"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
