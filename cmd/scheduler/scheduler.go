package scheduler

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"quotefeed/src/connectors"
	"quotefeed/src/database"
	"quotefeed/src/model"
	"quotefeed/src/refresher"
	"quotefeed/src/repository"
)

type Scheduler struct{}

// Start runs the refresh loops until SIGINT or SIGTERM. Metals and FX
// tick independently so a slow or failing category never delays the
// other one.
func (s *Scheduler) Start() error {
	config := GetConfig()
	refresherConfig := refresher.GetConfig()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	if err := database.Seed(); err != nil {
		logger.WithError(err).Error("Failed to seed instruments")
		return err
	}

	connectorConfig := connectors.GetConfig()

	r := refresher.New(
		refresherConfig,
		connectors.NewHaremConnector(connectorConfig),
		connectors.NewTCMBConnector(connectorConfig),
		connectors.NewErapiConnector(connectorConfig),
		repository.NewQuoteRepository(),
		repository.NewSnapshotRepository(),
		repository.NewFetchStateRepository(),
	)

	if config.RefreshOnStart {
		refreshCategory(ctx, r, model.CategoryMetals)
		refreshCategory(ctx, r, model.CategoryFX)
	}

	metalsTicker := time.NewTicker(refresherConfig.MetalsTickPeriod)
	defer metalsTicker.Stop()
	fxTicker := time.NewTicker(refresherConfig.FXTickPeriod)
	defer fxTicker.Stop()

	logger.WithFields(logger.Fields{
		"metalsTickPeriod": refresherConfig.MetalsTickPeriod,
		"fxTickPeriod":     refresherConfig.FXTickPeriod,
	}).Info("Starting refresh scheduler")

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return nil

		case <-metalsTicker.C:
			if err := r.RefreshIfStale(ctx, model.CategoryMetals); err != nil {
				logger.WithError(err).WithField("category", model.CategoryMetals).
					Error("refresh tick failed")
			}

		case <-fxTicker.C:
			if err := r.RefreshIfStale(ctx, model.CategoryFX); err != nil {
				logger.WithError(err).WithField("category", model.CategoryFX).
					Error("refresh tick failed")
			}
		}
	}
}

func refreshCategory(ctx context.Context, r *refresher.Refresher, category string) {
	logger.WithField("category", category).Info("initial refresh")
	if err := r.Refresh(ctx, category); err != nil {
		logger.WithError(err).WithField("category", category).
			Error("initial refresh failed")
	}
}
