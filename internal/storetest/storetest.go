// Package storetest provides in-memory SQLite fixtures for service tests.
package storetest

import (
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/cellar-backend/pkg/db"
	"github.com/angelmondragon/cellar-backend/pkg/db/models"
	"github.com/angelmondragon/cellar-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens an isolated in-memory database with every model migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// NewClient wraps NewDB in a db.Client so services get a real transaction runner.
func NewClient(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromGorm(NewDB(t))
}

// WineOption customizes a seeded wine.
type WineOption func(*models.Wine)

// Inactive marks the seeded wine as unlisted.
func Inactive() WineOption {
	return func(w *models.Wine) { w.IsActive = false }
}

// Named overrides the seeded wine's name.
func Named(name string) WineOption {
	return func(w *models.Wine) { w.Name = name }
}

// OfType overrides the seeded wine's style.
func OfType(t enums.WineType) WineOption {
	return func(w *models.Wine) { w.Type = t }
}

// From sets the seeded wine's country and region.
func From(country, region string) WineOption {
	return func(w *models.Wine) {
		w.Country = country
		w.Region = region
	}
}

// SeedWine inserts an active red wine priced at priceCents.
func SeedWine(t testing.TB, conn *gorm.DB, priceCents int64, opts ...WineOption) *models.Wine {
	t.Helper()
	wine := &models.Wine{
		Name:       "Test Cuvee",
		Winery:     "Test Estate",
		Type:       enums.WineTypeRed,
		Varietal:   "Syrah",
		Country:    "France",
		Region:     "Rhone",
		PriceCents: priceCents,
		IsActive:   true,
	}
	for _, opt := range opts {
		opt(wine)
	}
	if err := conn.Create(wine).Error; err != nil {
		t.Fatalf("seed wine: %v", err)
	}
	return wine
}
