package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quotefeed/src/database"
	"quotefeed/src/model"
)

// prevLookbackCenter and prevLookbackWindow define where the
// "24 hours ago" reference is searched: a ±12h window centered on
// now-24h, preferring the oldest match.
const (
	prevLookbackCenter = 24 * time.Hour
	prevLookbackWindow = 12 * time.Hour
)

// SnapshotRepository maintains the single latest row per instrument.
type SnapshotRepository struct {
	db     *gorm.DB
	quotes *QuoteRepository
	now    func() time.Time
}

// NewSnapshotRepository creates a new repository instance using the main
// database.
func NewSnapshotRepository() *SnapshotRepository {
	logger.WithField("component", "SnapshotRepository").
		Info("Creating new SnapshotRepository with MainDB")

	return &SnapshotRepository{
		db:     database.MainDB,
		quotes: NewQuoteRepository(),
		now:    time.Now,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *SnapshotRepository) WithDB(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{
		db:     db,
		quotes: (&QuoteRepository{}).WithDB(db),
		now:    time.Now,
	}
}

// UpsertLatest writes one snapshot row per quote, insert-or-update keyed
// on the instrument. The 24h-ago reference is resolved from the
// historical series at write time and left nil when the window has no
// rows. Last write wins: callers must only feed live data here, never
// backfill output.
func (r *SnapshotRepository) UpsertLatest(ctx context.Context, quotes []model.NormalizedQuote) error {
	now := r.now()

	for _, q := range quotes {
		prev, err := r.quotes.FindReferenceNear(ctx, q.InstrumentKey, now.Add(-prevLookbackCenter), prevLookbackWindow)
		if err != nil {
			return err
		}

		snap := model.LatestSnapshot{
			InstrumentKey: q.InstrumentKey,
			Timestamp:     q.Timestamp,
			Price:         q.Price,
			Buy:           q.Buy,
			Sell:          q.Sell,
			Source:        q.Source,
			Raw:           q.Raw,
		}
		if prev != nil {
			price := prev.Price
			ts := prev.Timestamp
			snap.PrevPrice = &price
			snap.PrevTimestamp = &ts
		}

		err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "instrument_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"timestamp", "price", "buy", "sell",
				"prev_price", "prev_timestamp", "source", "raw", "updated_at",
			}),
		}).Create(&snap).Error
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"repo":       "SnapshotRepository",
				"op":         "UpsertLatest",
				"instrument": q.InstrumentKey,
			}).WithError(err).Error("Failed to upsert snapshot")
			return err
		}
	}

	logger.WithFields(map[string]interface{}{
		"repo": "SnapshotRepository",
		"op":   "UpsertLatest",
		"rows": len(quotes),
	}).Debug("Snapshots upserted")

	return nil
}

// FindByCategory returns the snapshots of all active instruments in a
// category, in the instruments' configured sort order.
func (r *SnapshotRepository) FindByCategory(ctx context.Context, category string) ([]model.LatestSnapshot, error) {
	var rows []model.LatestSnapshot
	err := r.db.WithContext(ctx).
		Joins("JOIN instruments ON instruments.key = latest_snapshots.instrument_key").
		Where("instruments.category = ? AND instruments.active = ?", category, true).
		Order("instruments.sort_order ASC").
		Find(&rows).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "SnapshotRepository",
			"op":       "FindByCategory",
			"category": category,
		}).WithError(err).Error("Failed to fetch snapshots")
		return nil, err
	}
	return rows, nil
}
