package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"quotefeed/src/database"
	"quotefeed/src/model"
)

// InstrumentRepository reads the instrument reference table.
type InstrumentRepository struct {
	db *gorm.DB
}

func NewInstrumentRepository() *InstrumentRepository {
	logger.WithField("component", "InstrumentRepository").
		Info("Creating new InstrumentRepository with MainDB")

	return &InstrumentRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *InstrumentRepository) WithDB(db *gorm.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// FindByKey fetches one instrument, or nil when the key is unknown.
func (r *InstrumentRepository) FindByKey(ctx context.Context, key string) (*model.Instrument, error) {
	var instrument model.Instrument
	err := r.db.WithContext(ctx).First(&instrument, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "InstrumentRepository",
			"op":   "FindByKey",
			"key":  key,
		}).WithError(err).Error("Failed to fetch instrument")
		return nil, err
	}
	return &instrument, nil
}

// FindActiveByCategory returns the active instruments of a category in
// configured sort order.
func (r *InstrumentRepository) FindActiveByCategory(ctx context.Context, category string) ([]model.Instrument, error) {
	var instruments []model.Instrument
	err := r.db.WithContext(ctx).
		Where("category = ? AND active = ?", category, true).
		Order("sort_order ASC").
		Find(&instruments).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "InstrumentRepository",
			"op":       "FindActiveByCategory",
			"category": category,
		}).WithError(err).Error("Failed to fetch instruments")
		return nil, err
	}
	return instruments, nil
}
