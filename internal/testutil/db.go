// Package testutil builds throwaway sqlite databases with the production
// schema for package tests.
package testutil

import (
	"testing"

	"erp-backend/internal/database"
	"erp-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns an in-memory database. A single connection is kept open so
// every goroutine sees the same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// NewDBWithView also creates v_available_stock.
func NewDBWithView(t *testing.T) *gorm.DB {
	t.Helper()
	db := NewDB(t)
	require.NoError(t, database.EnsureAvailabilityView(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := models.User{
		Username:     username,
		DisplayName:  username,
		Role:         role,
		PasswordHash: string(hash),
		Enabled:      true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func CreateProduct(t *testing.T, db *gorm.DB, categoryID uint, name string) models.Product {
	t.Helper()
	p := models.Product{Name: name, CategoryID: categoryID, Unit: "pcs", Price: decimal.Zero}
	require.NoError(t, db.Omit("Category").Create(&p).Error)
	return p
}

func CreateStatus(t *testing.T, db *gorm.DB, key string, sortOrder int, final bool) models.ProductionStatus {
	t.Helper()
	s := models.ProductionStatus{Name: key, KeyName: key, SortOrder: sortOrder, IsFinal: final}
	require.NoError(t, db.Create(&s).Error)
	return s
}

// Qty parses a decimal literal and panics on bad input.
func Qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
