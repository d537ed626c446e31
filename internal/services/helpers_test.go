package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"platita/internal/models"
	"platita/internal/testutil"
)

// stubRates is a RateServicer that always returns a fixed rate.
type stubRates struct {
	rate int64
	err  error
}

func (s *stubRates) GetRate(_ context.Context, from, to models.Currency) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if from == to {
		return 100, nil
	}
	return s.rate, nil
}

// ledgerDeps bundles the service graph most tests need.
type ledgerDeps struct {
	db        *gorm.DB
	rates     *stubRates
	accounts  AccountServicer
	movements MovementServicer
}

func newLedgerDeps(t *testing.T) (*ledgerDeps, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	rates := &stubRates{rate: 95000}
	accounts := NewAccountService(db)
	movements := NewMovementService(db, accounts, rates)
	deps := &ledgerDeps{db: db, rates: rates, accounts: accounts, movements: movements}
	return deps, func() { testutil.TeardownTestDB(t, db) }
}

// reloadMovement fetches the current database row for a movement.
func reloadMovement(t *testing.T, db *gorm.DB, id string) *models.Movement {
	t.Helper()

	var m models.Movement
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload movement %s: %v", id, err)
	}
	return &m
}

func strPtr(s string) *string { return &s }

func currencyPtr(c models.Currency) *models.Currency { return &c }

func int64Ptr(v int64) *int64 { return &v }
