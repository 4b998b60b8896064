package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"quotefeed/src/database"
	"quotefeed/src/model"
)

// historicalBatchSize bounds insert transaction size for large backfills.
const historicalBatchSize = 500

// sufficientHistoryBuffer is the tolerance applied when deciding whether
// stored history already reaches a target lookback.
const sufficientHistoryBuffer = 30 * 24 * time.Hour

// QuoteRepository handles the append-only historical quote series.
type QuoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new repository instance using the main
// database.
func NewQuoteRepository() *QuoteRepository {
	logger.WithField("component", "QuoteRepository").
		Info("Creating new QuoteRepository with MainDB")

	return &QuoteRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *QuoteRepository) WithDB(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// AppendHistorical inserts every quote as a new historical row. There is
// no uniqueness constraint: overlapping observations from different
// sources are expected and resolved at read time. All rows of one call
// share a batch ID for audit.
func (r *QuoteRepository) AppendHistorical(ctx context.Context, quotes []model.NormalizedQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	rows := make([]model.HistoricalQuote, 0, len(quotes))
	for _, q := range quotes {
		row := q.ToHistorical()
		row.BatchID = batchID
		rows = append(rows, row)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&rows, historicalBatchSize).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "QuoteRepository",
			"op":    "AppendHistorical",
			"rows":  len(rows),
			"batch": batchID,
		}).WithError(err).Error("Failed to append historical quotes")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "QuoteRepository",
		"op":    "AppendHistorical",
		"rows":  len(rows),
		"batch": batchID,
	}).Debug("Historical quotes appended")

	return nil
}

// FindReferenceNear returns the earliest historical row for the
// instrument whose timestamp falls inside [center-window, center+window],
// or nil when the window is empty. Used to resolve the "24 hours ago"
// reference at snapshot write time.
func (r *QuoteRepository) FindReferenceNear(ctx context.Context, instrumentKey string, center time.Time, window time.Duration) (*model.HistoricalQuote, error) {
	var row model.HistoricalQuote
	err := r.db.WithContext(ctx).
		Where("instrument_key = ? AND timestamp >= ? AND timestamp <= ?",
			instrumentKey, center.Add(-window).Unix(), center.Add(window).Unix()).
		Order("timestamp ASC").
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "QuoteRepository",
			"op":         "FindReferenceNear",
			"instrument": instrumentKey,
		}).WithError(err).Error("Failed to look up reference quote")
		return nil, err
	}
	return &row, nil
}

// FindHistory returns historical rows for one instrument, oldest first.
// from/to are unix-second bounds; zero means unbounded on that side.
func (r *QuoteRepository) FindHistory(ctx context.Context, instrumentKey string, from, to int64, limit int) ([]model.HistoricalQuote, error) {
	if limit <= 0 || limit > 5000 {
		limit = 5000
	}

	q := r.db.WithContext(ctx).Where("instrument_key = ?", instrumentKey)
	if from > 0 {
		q = q.Where("timestamp >= ?", from)
	}
	if to > 0 {
		q = q.Where("timestamp <= ?", to)
	}

	var rows []model.HistoricalQuote
	err := q.Order("timestamp ASC").Limit(limit).Find(&rows).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "QuoteRepository",
			"op":         "FindHistory",
			"instrument": instrumentKey,
		}).WithError(err).Error("Failed to fetch history")
		return nil, err
	}
	return rows, nil
}

// OldestTimestamp returns the oldest stored timestamp for the
// instrument, or nil when no rows exist.
func (r *QuoteRepository) OldestTimestamp(ctx context.Context, instrumentKey string) (*int64, error) {
	var oldest *int64
	err := r.db.WithContext(ctx).
		Model(&model.HistoricalQuote{}).
		Where("instrument_key = ?", instrumentKey).
		Select("MIN(timestamp)").
		Scan(&oldest).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "QuoteRepository",
			"op":         "OldestTimestamp",
			"instrument": instrumentKey,
		}).WithError(err).Error("Failed to fetch oldest timestamp")
		return nil, err
	}
	return oldest, nil
}

// HasSufficientHistory reports whether the oldest stored row for the
// instrument is at or before now minus targetYears, with a 30-day
// buffer. Backfill uses this to skip instruments that are already
// populated.
func (r *QuoteRepository) HasSufficientHistory(ctx context.Context, instrumentKey string, targetYears int) (bool, error) {
	oldest, err := r.OldestTimestamp(ctx, instrumentKey)
	if err != nil {
		return false, err
	}
	if oldest == nil {
		return false, nil
	}

	cutoff := time.Now().AddDate(-targetYears, 0, 0).Add(sufficientHistoryBuffer)
	return *oldest <= cutoff.Unix(), nil
}
