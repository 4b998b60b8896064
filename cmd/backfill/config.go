package backfill

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TargetYears is the lookback the historical series should reach.
	// Instruments already covered that far back are skipped.
	TargetYears int `envconfig:"BACKFILL_TARGET_YEARS" default:"5"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
