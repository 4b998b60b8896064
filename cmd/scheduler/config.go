package scheduler

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RefreshOnStart forces a refresh attempt for both categories before
	// the tickers take over, so a fresh deploy serves data immediately.
	RefreshOnStart bool `envconfig:"REFRESH_ON_START" default:"true"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
