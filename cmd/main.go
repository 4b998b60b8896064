package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"quotefeed/cmd/backfill"
	"quotefeed/cmd/scheduler"
	"quotefeed/src/database"
)

var Version string

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	app := cli.NewApp()
	app.Name = "Quotefeed CMD"
	app.Usage = "The quotefeed command line interface"

	app.Commands = []cli.Command{
		schedulerCMD,
		backfillCMD,
		seedCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	schedulerCMD = cli.Command{
		Name:        "scheduler",
		Usage:       "run the refresh scheduler",
		Action:      schedulerAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the periodic quote refresh loops`,
	}
	backfillCMD = cli.Command{
		Name:        "backfill",
		Usage:       "run the historical backfill",
		Action:      backfillAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Populate the historical series from archive providers`,
	}
	seedCMD = cli.Command{
		Name:        "seed",
		Usage:       "seed the instrument catalog",
		Action:      seedAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Insert the instrument catalog rows`,
	}
)

func schedulerAction(_ *cli.Context) error {

	logrus.Info("Starting scheduler CMD")
	logrus.WithField("cmd", "scheduler")

	s := &scheduler.Scheduler{}
	err := s.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func backfillAction(_ *cli.Context) error {

	logrus.Info("Starting backfill CMD")
	logrus.WithField("cmd", "backfill")

	b := &backfill.Backfill{}
	err := b.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func seedAction(_ *cli.Context) error {

	logrus.Info("Starting seed CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	if err := database.Seed(); err != nil {
		logrus.WithError(err).Error("Seeding instruments")
		return err
	}

	return nil
}
