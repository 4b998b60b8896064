package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quotefeed/src/database"
	"quotefeed/src/model"
)

// failureAlertThreshold is the consecutive-failure count at which a
// category is considered broken and an alert log is emitted.
const failureAlertThreshold = 5

// FetchStateRepository maintains the per-category refresh ledger.
type FetchStateRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewFetchStateRepository creates a new repository instance using the
// main database.
func NewFetchStateRepository() *FetchStateRepository {
	logger.WithField("component", "FetchStateRepository").
		Info("Creating new FetchStateRepository with MainDB")

	return &FetchStateRepository{db: database.MainDB, now: time.Now}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *FetchStateRepository) WithDB(db *gorm.DB) *FetchStateRepository {
	return &FetchStateRepository{db: db, now: time.Now}
}

// Get returns the fetch state for a category, or nil when no attempt was
// ever recorded.
func (r *FetchStateRepository) Get(ctx context.Context, category string) (*model.FetchState, error) {
	var state model.FetchState
	err := r.db.WithContext(ctx).First(&state, "category = ?", category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":     "FetchStateRepository",
			"op":       "Get",
			"category": category,
		}).WithError(err).Error("Failed to fetch state")
		return nil, err
	}
	return &state, nil
}

// RecordAttempt marks the start of a refresh attempt: status
// in_progress, last-attempt stamped. The success/failure bookkeeping is
// untouched until RecordResult finalizes the attempt.
func (r *FetchStateRepository) RecordAttempt(ctx context.Context, category string) error {
	now := r.now()
	state := model.FetchState{
		Category:      category,
		LastStatus:    model.FetchStatusInProgress,
		LastAttemptAt: &now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_status", "last_attempt_at", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "FetchStateRepository",
			"op":       "RecordAttempt",
			"category": category,
		}).WithError(err).Error("Failed to record attempt")
		return err
	}
	return nil
}

// RecordResult finalizes an attempt. A nil resultErr resets the
// consecutive-failure counter and stamps the success time; an error
// increments the counter and stores the message. Crossing the alert
// threshold emits an error log for the monitoring pipeline.
func (r *FetchStateRepository) RecordResult(ctx context.Context, category string, resultErr error) error {
	state, err := r.Get(ctx, category)
	if err != nil {
		return err
	}
	now := r.now()
	isNew := state == nil
	if isNew {
		state = &model.FetchState{Category: category}
	}

	state.LastAttemptAt = &now
	if resultErr == nil {
		state.LastStatus = model.FetchStatusSuccess
		state.LastSuccessAt = &now
		state.LastError = ""
		state.ConsecutiveFailures = 0
	} else {
		state.LastStatus = model.FetchStatusError
		state.LastError = resultErr.Error()
		state.ConsecutiveFailures++
	}

	// Save updates zero rows for a key that was never inserted, so a
	// first-ever result goes through Create instead.
	tx := r.db.WithContext(ctx)
	if isNew {
		err = tx.Create(state).Error
	} else {
		err = tx.Save(state).Error
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "FetchStateRepository",
			"op":       "RecordResult",
			"category": category,
		}).WithError(err).Error("Failed to record result")
		return err
	}

	if state.ConsecutiveFailures >= failureAlertThreshold {
		logger.WithFields(map[string]interface{}{
			"category": category,
			"failures": state.ConsecutiveFailures,
			"error":    state.LastError,
		}).Error("Refresh category has reached the consecutive-failure threshold")
	}

	return nil
}
