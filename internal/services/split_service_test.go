package services

import (
	"context"
	"testing"
	"time"

	"platita/internal/models"
	"platita/internal/testutil"
)

func TestSplit(t *testing.T) {
	t.Run("replaces_original_with_parts", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewSplitService(deps.db, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		category := testutil.CreateTestCategory(t, deps.db, user.ID)

		original, err := deps.movements.CreateMovement(context.Background(), user.ID, MovementInput{
			AccountID:  &account.ID,
			CategoryID: &category.ID,
			Name:       "Supermercado",
			Type:       models.MovementTypeExpense,
			Amount:     90000,
		})
		testutil.AssertNoError(t, err)

		parts, err := svc.Split(user.ID, original.ID, []SplitPart{
			{Name: "Groceries", Amount: 30000},
			{Name: "Cleaning", Amount: 30000},
			{Name: "Treats", Amount: 30000},
		})
		testutil.AssertNoError(t, err)

		if _, err := deps.movements.GetMovementByID(user.ID, original.ID); err == nil {
			t.Error("expected original gone after split")
		}
		if len(parts) != 3 {
			t.Fatalf("expected 3 parts, got %d", len(parts))
		}
		var sum int64
		for _, p := range parts {
			sum += p.Amount
			if !p.NeedsReview {
				t.Errorf("expected part %q flagged for review", p.Name)
			}
			if p.AccountID == nil || *p.AccountID != account.ID {
				t.Errorf("expected part %q to inherit the account", p.Name)
			}
			if p.CategoryID == nil || *p.CategoryID != category.ID {
				t.Errorf("expected part %q to inherit the category", p.Name)
			}
			if p.OriginalName == nil || *p.OriginalName != "Supermercado" {
				t.Errorf("expected part %q tagged with the original name", p.Name)
			}
			if !p.CreatedAt.After(time.Now()) {
				t.Errorf("expected part %q created in the near future", p.Name)
			}
		}
		if sum != 90000 {
			t.Errorf("expected parts to sum to 90000, got %d", sum)
		}
	})

	t.Run("prorates_usd_slot", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewSplitService(deps.db, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccountWithCurrency(t, deps.db, user.ID, models.CurrencyUSD, 0)

		original, err := deps.movements.CreateMovement(context.Background(), user.ID, MovementInput{
			AccountID: &account.ID,
			Name:      "Hosting",
			Type:      models.MovementTypeExpense,
			Amount:    10001, // USD cents
			Currency:  models.CurrencyUSD,
		})
		testutil.AssertNoError(t, err)

		parts, err := svc.Split(user.ID, original.ID, []SplitPart{
			{Name: "First", Amount: 5000},
			{Name: "Second", Amount: 5001},
		})
		testutil.AssertNoError(t, err)

		if parts[0].AmountUSD == nil || *parts[0].AmountUSD != 5000 {
			t.Errorf("expected first USD slot 5000, got %v", parts[0].AmountUSD)
		}
		if parts[1].AmountUSD == nil || *parts[1].AmountUSD != 5001 {
			t.Errorf("expected second USD slot 5001, got %v", parts[1].AmountUSD)
		}
	})

	t.Run("rejects_sum_mismatch", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewSplitService(deps.db, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		original := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 90000)

		_, err := svc.Split(user.ID, original.ID, []SplitPart{
			{Name: "First", Amount: 30000},
			{Name: "Second", Amount: 30000},
		})
		testutil.AssertAppError(t, err, "SPLIT_SUM_MISMATCH")

		// The original must be untouched on rejection.
		if _, err := deps.movements.GetMovementByID(user.ID, original.ID); err != nil {
			t.Errorf("expected original intact after rejected split: %v", err)
		}
	})

	t.Run("rejects_bad_part_counts", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewSplitService(deps.db, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		original := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 90000)

		_, err := svc.Split(user.ID, original.ID, []SplitPart{{Name: "Only", Amount: 90000}})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		many := make([]SplitPart, 21)
		for i := range many {
			many[i] = SplitPart{Name: "Part", Amount: 1}
		}
		_, err = svc.Split(user.ID, original.ID, many)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_non_positive_part", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewSplitService(deps.db, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		original := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 1000)

		_, err := svc.Split(user.ID, original.ID, []SplitPart{
			{Name: "First", Amount: 2000},
			{Name: "Second", Amount: -1000},
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_transfer_leg", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewSplitService(deps.db, deps.movements)
		transfers := NewTransferService(deps.db, deps.accounts, deps.movements, deps.rates)
		user := testutil.CreateTestUser(t, deps.db)
		from := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		to := testutil.CreateTestAccount(t, deps.db, user.ID, 0)

		expense, _, err := transfers.CreateTransfer(context.Background(), user.ID, TransferInput{
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			Amount:        5000,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.Split(user.ID, expense.ID, []SplitPart{
			{Name: "First", Amount: 2500},
			{Name: "Second", Amount: 2500},
		})
		testutil.AssertAppError(t, err, "MOVEMENT_NOT_EDITABLE")
	})

	t.Run("clears_dangling_receivable_link", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewSplitService(deps.db, deps.movements)
		receivables := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)

		expense := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 90000)
		receivable, err := receivables.MarkReceivable(user.ID, expense.ID, nil)
		testutil.AssertNoError(t, err)
		_, err = receivables.MarkAsReceived(user.ID, receivable.ID, &account.ID)
		testutil.AssertNoError(t, err)

		var payment models.Movement
		testutil.AssertNoError(t, deps.db.First(&payment, "receivable_id = ?", receivable.ID).Error)

		_, err = svc.Split(user.ID, receivable.ID, []SplitPart{
			{Name: "First half", Amount: 45000},
			{Name: "Second half", Amount: 45000},
		})
		testutil.AssertNoError(t, err)

		var count int64
		deps.db.Model(&models.Movement{}).Where("receivable_id = ?", receivable.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no payment linked to the split-away movement, got %d", count)
		}
		if got := reloadMovement(t, deps.db, payment.ID); got.ReceivableID != nil {
			t.Error("expected payment link cleared when the receivable is split")
		}
	})
}
