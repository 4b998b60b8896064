package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"quotefeed/src/connectors"
	"quotefeed/src/model"
)

type historyStore interface {
	AppendHistorical(ctx context.Context, quotes []model.NormalizedQuote) error
	HasSufficientHistory(ctx context.Context, instrumentKey string, targetYears int) (bool, error)
}

// Target binds one archive instrument code to an internal instrument and
// the archive connector that serves it.
type Target struct {
	InstrumentKey string
	ArchiveCode   string
	Source        connectors.HistorySource
}

// Summary tallies one backfill run.
type Summary struct {
	Skipped   int
	Succeeded int
	Failed    int
	Rows      int
}

// Controller bulk-populates the historical series from archive sources.
// Idempotent: instruments whose stored history already reaches the
// target lookback are skipped. Per-instrument failures do not abort the
// rest; the next run resumes whatever is missing.
//
// The controller writes only to the historical series. It must never
// touch the latest-snapshot table: snapshot upserts are last-write-wins
// and archive data is old.
type Controller struct {
	quotes      historyStore
	targets     []Target
	targetYears int
	now         func() time.Time
}

func New(quotes historyStore, targets []Target, targetYears int) *Controller {
	if targetYears <= 0 {
		targetYears = 5
	}
	return &Controller{
		quotes:      quotes,
		targets:     targets,
		targetYears: targetYears,
		now:         time.Now,
	}
}

// Run processes every configured target and returns the completion
// summary. The returned error is non-nil only when every attempted
// target failed.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	for _, target := range c.targets {
		rows, err := c.runOne(ctx, target)
		switch {
		case errors.Is(err, errAlreadyPopulated):
			summary.Skipped++
		case err != nil:
			summary.Failed++
			logger.WithFields(logger.Fields{
				"instrument": target.InstrumentKey,
				"archive":    target.Source.Name(),
			}).WithError(err).Error("backfill: instrument failed, continuing")
		default:
			summary.Succeeded++
			summary.Rows += rows
		}
	}

	logger.WithFields(logger.Fields{
		"skipped":   summary.Skipped,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"rows":      summary.Rows,
	}).Info("backfill run complete")

	if summary.Failed > 0 && summary.Succeeded == 0 && summary.Skipped == 0 {
		return summary, fmt.Errorf("backfill failed for all %d instruments", summary.Failed)
	}
	return summary, nil
}

var errAlreadyPopulated = errors.New("history already sufficient")

func (c *Controller) runOne(ctx context.Context, target Target) (int, error) {
	ok, err := c.quotes.HasSufficientHistory(ctx, target.InstrumentKey, c.targetYears)
	if err != nil {
		return 0, err
	}
	if ok {
		logger.WithField("instrument", target.InstrumentKey).
			Debug("backfill: skipping, history already sufficient")
		return 0, errAlreadyPopulated
	}

	to := c.now()
	from := to.AddDate(-c.targetYears, 0, 0)

	quotes, err := target.Source.FetchHistory(ctx, target.ArchiveCode, from, to)
	if err != nil {
		if errors.Is(err, connectors.ErrNoData) {
			// Nothing for the range is not a failure.
			return 0, nil
		}
		return 0, err
	}

	// Archive connectors return quotes keyed by provider code; stamp the
	// internal instrument before persisting.
	for i := range quotes {
		quotes[i].InstrumentKey = target.InstrumentKey
	}

	if err := c.quotes.AppendHistorical(ctx, quotes); err != nil {
		return 0, err
	}

	logger.WithFields(logger.Fields{
		"instrument": target.InstrumentKey,
		"archive":    target.Source.Name(),
		"rows":       len(quotes),
	}).Info("backfill: instrument populated")

	return len(quotes), nil
}
