// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/config"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Epoch is the fixed "now" most tests start from.
var Epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewLogger returns a logger whose entries are captured by the hook.
func NewLogger() (*logrus.Logger, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return l, hook
}

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{T: t} }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

type Fixtures struct {
	Customer   models.User
	Restaurant models.Restaurant
	Other      models.Restaurant
	Burger     models.Product
	Soda       models.Product
}

// Seed inserts one customer, two restaurants and two products of the first one.
func Seed(t testing.TB, db *gorm.DB) Fixtures {
	t.Helper()

	f := Fixtures{
		Customer:   models.User{Name: "Maria Silva", Email: "maria@example.com", Phone: "11999990000", Role: models.RoleCustomer},
		Restaurant: models.Restaurant{OwnerID: 10, Name: "Cantina da Vila", LogoURL: "https://img.example.com/cantina.png", IsOpen: true},
		Other:      models.Restaurant{OwnerID: 11, Name: "Sushi Bar", IsOpen: true},
	}
	mustCreate(t, db, &f.Customer)
	mustCreate(t, db, &f.Restaurant)
	mustCreate(t, db, &f.Other)

	f.Burger = models.Product{RestaurantID: f.Restaurant.ID, Name: "X-Burger", Price: decimal.RequireFromString("10.00"), IsAvailable: true}
	f.Soda = models.Product{RestaurantID: f.Restaurant.ID, Name: "Guaraná", Price: decimal.RequireFromString("5.50"), IsAvailable: true}
	mustCreate(t, db, &f.Burger)
	mustCreate(t, db, &f.Soda)
	return f
}

func mustCreate(t testing.TB, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
}
