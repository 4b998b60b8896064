package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"quotefeed/src/model"
)

// seedInstruments is the reference instrument set. Seeding is idempotent:
// existing rows keep their data (renames and reordering are done by
// corrective migration, not by re-seeding).
var seedInstruments = []model.Instrument{
	{Key: "gram", Category: model.CategoryMetals, Name: "Gram Altın", MarketCode: "ALTIN", Currency: "TRY", Unit: "g", SortOrder: 10, Active: true},
	{Key: "gram14", Category: model.CategoryMetals, Name: "14 Ayar Gram", MarketCode: "", Currency: "TRY", Unit: "g", SortOrder: 20, Active: true},
	{Key: "ceyrek", Category: model.CategoryMetals, Name: "Çeyrek Altın", MarketCode: "CEYREK_YENI", Currency: "TRY", Unit: "adet", SortOrder: 30, Active: true},
	{Key: "yarim", Category: model.CategoryMetals, Name: "Yarım Altın", MarketCode: "YARIM_YENI", Currency: "TRY", Unit: "adet", SortOrder: 40, Active: true},
	{Key: "tam", Category: model.CategoryMetals, Name: "Tam Altın", MarketCode: "TEK_YENI", Currency: "TRY", Unit: "adet", SortOrder: 50, Active: true},
	{Key: "ata", Category: model.CategoryMetals, Name: "Ata Altın", MarketCode: "ATA_YENI", Currency: "TRY", Unit: "adet", SortOrder: 60, Active: true},
	{Key: "ons", Category: model.CategoryMetals, Name: "Ons Altın", MarketCode: "ONS", Currency: "USD", Unit: "oz", SortOrder: 70, Active: true},
	{Key: "gumus", Category: model.CategoryMetals, Name: "Gümüş", MarketCode: "GUMUS", Currency: "TRY", Unit: "g", SortOrder: 80, Active: true},

	{Key: "usd", Category: model.CategoryFX, Name: "Dolar", MarketCode: "USD", Currency: "TRY", SortOrder: 10, Active: true},
	{Key: "eur", Category: model.CategoryFX, Name: "Euro", MarketCode: "EUR", Currency: "TRY", SortOrder: 20, Active: true},
	{Key: "gbp", Category: model.CategoryFX, Name: "Sterlin", MarketCode: "GBP", Currency: "TRY", SortOrder: 30, Active: true},
	{Key: "chf", Category: model.CategoryFX, Name: "İsviçre Frangı", MarketCode: "CHF", Currency: "TRY", SortOrder: 40, Active: true},
	{Key: "jpy", Category: model.CategoryFX, Name: "Japon Yeni", MarketCode: "JPY", Currency: "TRY", SortOrder: 50, Active: true},
	{Key: "sar", Category: model.CategoryFX, Name: "Riyal", MarketCode: "SAR", Currency: "TRY", SortOrder: 60, Active: true},
	{Key: "eurusd", Category: model.CategoryFX, Name: "Euro/Dolar", MarketCode: "EURUSD", Currency: "USD", SortOrder: 70, Active: true},
}

// Seed inserts the reference instruments, skipping keys that already
// exist.
func Seed() error {
	if MainDB == nil {
		return fmt.Errorf("database not initialized")
	}

	result := MainDB.Clauses(clause.OnConflict{DoNothing: true}).Create(&seedInstruments)
	if result.Error != nil {
		return fmt.Errorf("failed to seed instruments: %w", result.Error)
	}

	logrus.WithField("instruments", len(seedInstruments)).Info("[database] instrument seed completed")
	return nil
}
