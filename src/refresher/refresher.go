package refresher

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"quotefeed/src/connectors"
	"quotefeed/src/model"
)

var ErrUnknownCategory = errors.New("unknown refresh category")

// quoteStore, snapshotStore and stateStore are the slices of the
// repositories the refresher needs. Satisfied by
// repository.QuoteRepository, SnapshotRepository and
// FetchStateRepository.
type quoteStore interface {
	AppendHistorical(ctx context.Context, quotes []model.NormalizedQuote) error
}

type snapshotStore interface {
	UpsertLatest(ctx context.Context, quotes []model.NormalizedQuote) error
}

type stateStore interface {
	Get(ctx context.Context, category string) (*model.FetchState, error)
	RecordAttempt(ctx context.Context, category string) error
	RecordResult(ctx context.Context, category string, resultErr error) error
}

// Refresher sequences adapter calls per category, applies the cooldown
// and staleness gates, falls back between FX adapters, persists the
// outcome and keeps the fetch-state ledger.
//
// One process instance is assumed: the cooldown gate is a read+check, not
// an atomic claim, so two instances could pass it simultaneously.
type Refresher struct {
	cfg Config

	metals connectors.CurrentSource
	// metalsExtra optionally augments the primary metals source with
	// instruments it does not cover. Merge only, never overwrite.
	metalsExtra connectors.CurrentSource
	fxPrimary   connectors.CurrentSource
	fxFallback  connectors.CurrentSource

	quotes    quoteStore
	snapshots snapshotStore
	states    stateStore

	now func() time.Time
}

func New(cfg Config, metals, fxPrimary, fxFallback connectors.CurrentSource, quotes quoteStore, snapshots snapshotStore, states stateStore) *Refresher {
	return &Refresher{
		cfg:        cfg,
		metals:     metals,
		fxPrimary:  fxPrimary,
		fxFallback: fxFallback,
		quotes:     quotes,
		snapshots:  snapshots,
		states:     states,
		now:        time.Now,
	}
}

// WithMetalsAugment sets an optional secondary metals source whose quotes
// fill in instruments the primary did not return.
func (r *Refresher) WithMetalsAugment(src connectors.CurrentSource) *Refresher {
	r.metalsExtra = src
	return r
}

// CanRefresh reports whether the cooldown gate allows a new attempt for
// the category.
func (r *Refresher) CanRefresh(ctx context.Context, category string) (bool, error) {
	state, err := r.states.Get(ctx, category)
	if err != nil {
		return false, err
	}
	if state == nil || state.LastAttemptAt == nil {
		return true, nil
	}
	return r.now().Sub(*state.LastAttemptAt) >= r.cfg.Cooldown, nil
}

// Refresh runs one full refresh attempt for the category. A skipped
// attempt (cooldown) is not an error and leaves the ledger untouched.
func (r *Refresher) Refresh(ctx context.Context, category string) error {
	ok, err := r.CanRefresh(ctx, category)
	if err != nil {
		return err
	}
	if !ok {
		logger.WithField("category", category).Debug("refresh skipped: cooldown active")
		return nil
	}

	if err := r.states.RecordAttempt(ctx, category); err != nil {
		return err
	}

	quotes, fetchErr := r.fetch(ctx, category)
	if fetchErr == nil {
		fetchErr = r.persist(ctx, quotes)
	}

	if err := r.states.RecordResult(ctx, category, fetchErr); err != nil {
		logger.WithField("category", category).WithError(err).
			Error("failed to record refresh result")
	}

	if fetchErr != nil {
		logger.WithField("category", category).WithError(fetchErr).
			Error("refresh failed")
		return fetchErr
	}

	logger.WithFields(logger.Fields{
		"category": category,
		"quotes":   len(quotes),
	}).Info("refresh completed")
	return nil
}

// RefreshIfStale refreshes the category only when the last success is
// older than the staleness threshold. This is what the periodic
// scheduler invokes, decoupling "tick" from "actually refreshed".
func (r *Refresher) RefreshIfStale(ctx context.Context, category string) error {
	state, err := r.states.Get(ctx, category)
	if err != nil {
		return err
	}
	if state != nil && state.LastSuccessAt != nil &&
		r.now().Sub(*state.LastSuccessAt) < r.cfg.StalenessThreshold {
		logger.WithField("category", category).Debug("refresh skipped: data still fresh")
		return nil
	}
	return r.Refresh(ctx, category)
}

func (r *Refresher) fetch(ctx context.Context, category string) ([]model.NormalizedQuote, error) {
	switch category {
	case model.CategoryMetals:
		return r.fetchMetals(ctx)
	case model.CategoryFX:
		return r.fetchFX(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}

func (r *Refresher) fetchMetals(ctx context.Context) ([]model.NormalizedQuote, error) {
	quotes, err := r.metals.FetchCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("metals source %s failed: %w", r.metals.Name(), err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("metals source %s returned no quotes", r.metals.Name())
	}

	if r.metalsExtra != nil {
		extra, err := r.metalsExtra.FetchCurrent(ctx)
		if err != nil {
			// Augmentation is best-effort: the primary result stands.
			logger.WithError(err).WithField("source", r.metalsExtra.Name()).
				Warn("metals augment source failed, continuing with primary only")
		} else {
			quotes = mergeMissing(quotes, extra)
		}
	}

	return quotes, nil
}

func (r *Refresher) fetchFX(ctx context.Context) ([]model.NormalizedQuote, error) {
	quotes, err := r.fxPrimary.FetchCurrent(ctx)
	if err == nil && len(quotes) > 0 {
		return quotes, nil
	}

	if err != nil {
		logger.WithError(err).WithField("source", r.fxPrimary.Name()).
			Warn("fx primary failed, trying fallback")
	} else {
		logger.WithField("source", r.fxPrimary.Name()).
			Warn("fx primary returned no quotes, trying fallback")
	}

	quotes, fallbackErr := r.fxFallback.FetchCurrent(ctx)
	if fallbackErr != nil {
		return nil, fmt.Errorf("fx fallback %s failed after primary: %w", r.fxFallback.Name(), fallbackErr)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("fx fallback %s returned no quotes", r.fxFallback.Name())
	}

	logger.WithField("source", r.fxFallback.Name()).Info("fx served by fallback source")
	return quotes, nil
}

func (r *Refresher) persist(ctx context.Context, quotes []model.NormalizedQuote) error {
	if err := r.quotes.AppendHistorical(ctx, quotes); err != nil {
		return fmt.Errorf("append historical failed: %w", err)
	}
	if err := r.snapshots.UpsertLatest(ctx, quotes); err != nil {
		return fmt.Errorf("upsert latest failed: %w", err)
	}
	return nil
}

// mergeMissing appends quotes from extra whose instruments the primary
// set does not already cover.
func mergeMissing(primary, extra []model.NormalizedQuote) []model.NormalizedQuote {
	seen := make(map[string]bool, len(primary))
	for _, q := range primary {
		seen[q.InstrumentKey] = true
	}
	for _, q := range extra {
		if !seen[q.InstrumentKey] {
			primary = append(primary, q)
		}
	}
	return primary
}
