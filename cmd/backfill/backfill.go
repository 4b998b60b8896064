package backfill

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"

	"quotefeed/src/backfill"
	"quotefeed/src/connectors"
	"quotefeed/src/database"
	"quotefeed/src/repository"
)

type Backfill struct{}

// Start runs a one-shot backfill over the configured archive targets and
// exits. Safe to re-run: instruments with sufficient history are skipped
// and partial runs resume where they left off.
func (b *Backfill) Start() error {
	config := GetConfig()

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
	investing := connectors.NewInvestingConnector(connectorConfig)
	bigpara := connectors.NewBigparaConnector(connectorConfig)
	tcmb := connectors.NewTCMBConnector(connectorConfig)

	// Ounce-denominated instruments come from the cookie-gated archive,
	// lira-denominated gold from the open one, currency pairs from the
	// central bank's dated documents.
	targets := []backfill.Target{
		{InstrumentKey: "ons", ArchiveCode: "8830", Source: investing},
		{InstrumentKey: "gumus", ArchiveCode: "8836", Source: investing},
		{InstrumentKey: "gram", ArchiveCode: "gram-altin", Source: bigpara},
		{InstrumentKey: "ceyrek", ArchiveCode: "ceyrek-altin", Source: bigpara},
		{InstrumentKey: "yarim", ArchiveCode: "yarim-altin", Source: bigpara},
		{InstrumentKey: "tam", ArchiveCode: "tam-altin", Source: bigpara},
		{InstrumentKey: "usd", ArchiveCode: "USD", Source: tcmb},
		{InstrumentKey: "eur", ArchiveCode: "EUR", Source: tcmb},
	}

	controller := backfill.New(repository.NewQuoteRepository(), targets, config.TargetYears)

	summary, err := controller.Run(ctx)
	logger.WithFields(logger.Fields{
		"skipped":   summary.Skipped,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"rows":      summary.Rows,
	}).Info("backfill finished")

	if err != nil {
		logger.WithError(err).Error("backfill run failed")
		return err
	}
	return nil
}
