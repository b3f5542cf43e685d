package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/cryptocoins/internal/database"
	"github.com/example/cryptocoins/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, phone string, balance decimal.Decimal) *models.User {
	t.Helper()

	user := &models.User{
		PhoneNumber:   phone,
		PasswordHash:  "x",
		FullName:      "Test User",
		WalletBalance: balance,
		ReferralCode:  "REF" + phone,
		Role:          models.RoleUser,
		IsActive:      true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestCoin(t *testing.T, db *gorm.DB, symbol string, price decimal.Decimal, active bool) *models.Coin {
	t.Helper()

	coin := &models.Coin{
		Name:             symbol + " Coin",
		Symbol:           symbol,
		CurrentPrice:     price,
		ProfitPercentage: decimal.NewFromInt(5),
		IsActive:         active,
	}
	if err := db.Create(coin).Error; err != nil {
		t.Fatalf("failed to create test coin: %v", err)
	}
	return coin
}

func reloadUser(t *testing.T, db *gorm.DB, user *models.User) *models.User {
	t.Helper()

	var fresh models.User
	if err := db.First(&fresh, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	return &fresh
}
