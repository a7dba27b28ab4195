package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tobiasmaugus/vendas-api/internal/database"
	"github.com/tobiasmaugus/vendas-api/internal/model"
)

// newTestDB opens an isolated in-memory SQLite database with the full
// schema. The pool is pinned to a single connection so every session sees
// the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestCustomer(t *testing.T, db *gorm.DB, name string) *model.Customer {
	t.Helper()
	customer, err := NewCustomerService(db).Create(context.Background(), name, "11 99999-0000")
	require.NoError(t, err)
	return customer
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *model.Product {
	t.Helper()
	product, err := NewProductService(db).Create(context.Background(), name, "", price, stock)
	require.NoError(t, err)
	return product
}

func createTestUser(t *testing.T, db *gorm.DB, googleID, email string) *model.User {
	t.Helper()
	user := &model.User{GoogleID: googleID, Name: "Test User", Email: email}
	require.NoError(t, db.Create(user).Error)
	return user
}
