package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"platita/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a CLP account with the given initial balance (pesos).
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string, initialBalance int64) *models.Account {
	t.Helper()
	return CreateTestAccountWithCurrency(t, db, userID, models.CurrencyCLP, initialBalance)
}

// CreateTestAccountWithCurrency creates an account in the given currency.
// The initial balance is in the account's minor units.
func CreateTestAccountWithCurrency(t *testing.T, db *gorm.DB, userID string, currency models.Currency, initialBalance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		BankName:       "Banco Test",
		Currency:       currency,
		InitialBalance: initialBalance,
		IsActive:       true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestMovement creates a movement of the given type and amount in the
// account's currency, already normalized (no USD slot).
func CreateTestMovement(t *testing.T, db *gorm.DB, userID string, accountID string, movType models.MovementType, amount int64) *models.Movement {
	t.Helper()

	m := &models.Movement{
		UserID:    userID,
		AccountID: &accountID,
		Name:      fmt.Sprintf("Test Movement %d", nextID()),
		Type:      movType,
		Amount:    amount,
		Date:      time.Now().Truncate(24 * time.Hour),
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to create test movement: %v", err)
	}
	return m
}

// CreateTestRate inserts an exchange rate cache row fetched at the given time.
func CreateTestRate(t *testing.T, db *gorm.DB, from, to models.Currency, rate int64, fetchedAt time.Time) *models.ExchangeRate {
	t.Helper()

	entry := &models.ExchangeRate{
		Base:         models.Base{ID: fmt.Sprintf("test-rate-%d", nextID())},
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Source:       "fixture",
		FetchedAt:    fetchedAt,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test rate: %v", err)
	}
	return entry
}
