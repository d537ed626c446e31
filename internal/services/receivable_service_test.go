package services

import (
	"context"
	"testing"

	"platita/internal/models"
	"platita/internal/testutil"
)

func TestMarkReceivable(t *testing.T) {
	t.Run("sets_flag_and_clears_review", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)

		movement, err := deps.movements.CreateMovement(context.Background(), user.ID, MovementInput{
			AccountID:   &account.ID,
			Name:        "TEF A TERCEROS",
			Type:        models.MovementTypeExpense,
			Amount:      40000,
			NeedsReview: true,
		})
		testutil.AssertNoError(t, err)

		updated, err := svc.MarkReceivable(user.ID, movement.ID, strPtr("Juan owes half"))
		testutil.AssertNoError(t, err)

		if !updated.Receivable || updated.Received {
			t.Errorf("expected unresolved receivable, got receivable=%v received=%v", updated.Receivable, updated.Received)
		}
		if updated.NeedsReview {
			t.Error("expected needs_review cleared")
		}
		if updated.Name != "Juan owes half" {
			t.Errorf("expected reminder name, got %q", updated.Name)
		}
		if updated.OriginalName == nil || *updated.OriginalName != "TEF A TERCEROS" {
			t.Errorf("expected original name preserved, got %v", updated.OriginalName)
		}
		if updated.Type != models.MovementTypeExpense || updated.Amount != 40000 {
			t.Error("expected type and amount untouched")
		}
	})

	t.Run("rejects_transfer_leg", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		transfers := NewTransferService(deps.db, deps.accounts, deps.movements, deps.rates)
		user := testutil.CreateTestUser(t, deps.db)
		from := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		to := testutil.CreateTestAccount(t, deps.db, user.ID, 0)

		expense, _, err := transfers.CreateTransfer(context.Background(), user.ID, TransferInput{
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			Amount:        1000,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.MarkReceivable(user.ID, expense.ID, nil)
		testutil.AssertAppError(t, err, "MOVEMENT_NOT_EDITABLE")
	})
}

func TestMarkAsReceived(t *testing.T) {
	newReceivable := func(t *testing.T, deps *ledgerDeps, svc ReceivableServicer, userID, accountID string) *models.Movement {
		t.Helper()
		m := testutil.CreateTestMovement(t, deps.db, userID, accountID, models.MovementTypeExpense, 40000)
		marked, err := svc.MarkReceivable(userID, m.ID, nil)
		testutil.AssertNoError(t, err)
		return marked
	}

	t.Run("with_account_creates_linked_income", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 100000)
		receivable := newReceivable(t, deps, svc, user.ID, account.ID)

		resolved, err := svc.MarkAsReceived(user.ID, receivable.ID, &account.ID)
		testutil.AssertNoError(t, err)
		if !resolved.Received {
			t.Error("expected received flag set")
		}

		var payment models.Movement
		if err := deps.db.First(&payment, "receivable_id = ?", receivable.ID).Error; err != nil {
			t.Fatalf("expected a payment movement, got: %v", err)
		}
		if payment.Type != models.MovementTypeIncome {
			t.Errorf("expected income payment, got %s", payment.Type)
		}
		if payment.Amount != 40000 {
			t.Errorf("expected payment amount 40000, got %d", payment.Amount)
		}
		if payment.AccountID == nil || *payment.AccountID != account.ID {
			t.Error("expected payment on the supplied account")
		}
	})

	t.Run("without_account_settles_untracked", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		receivable := newReceivable(t, deps, svc, user.ID, account.ID)

		resolved, err := svc.MarkAsReceived(user.ID, receivable.ID, nil)
		testutil.AssertNoError(t, err)
		if !resolved.Received {
			t.Error("expected received flag set")
		}

		var count int64
		deps.db.Model(&models.Movement{}).Where("receivable_id = ?", receivable.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no payment movement, found %d", count)
		}
	})

	t.Run("rejects_second_resolution", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		receivable := newReceivable(t, deps, svc, user.ID, account.ID)

		_, err := svc.MarkAsReceived(user.ID, receivable.ID, nil)
		testutil.AssertNoError(t, err)
		_, err = svc.MarkAsReceived(user.ID, receivable.ID, nil)
		testutil.AssertAppError(t, err, "RECEIVABLE_ALREADY_RESOLVED")
	})

	t.Run("rejects_non_receivable", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
		movement := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 1000)

		_, err := svc.MarkAsReceived(user.ID, movement.ID, nil)
		testutil.AssertAppError(t, err, "NOT_A_RECEIVABLE")
	})
}

func TestMarkAsReceivedWithExisting(t *testing.T) {
	t.Run("links_income_once", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)

		expense := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 15000)
		receivable, err := svc.MarkReceivable(user.ID, expense.ID, nil)
		testutil.AssertNoError(t, err)
		income := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeIncome, 15000)

		testutil.AssertNoError(t, svc.MarkAsReceivedWithExisting(user.ID, receivable.ID, income.ID))

		if got := reloadMovement(t, deps.db, income.ID); got.ReceivableID == nil || *got.ReceivableID != receivable.ID {
			t.Error("expected income to reference the receivable")
		}
		if got := reloadMovement(t, deps.db, receivable.ID); !got.Received {
			t.Error("expected receivable resolved")
		}

		// The same income cannot settle a second receivable.
		other := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 15000)
		otherReceivable, err := svc.MarkReceivable(user.ID, other.ID, nil)
		testutil.AssertNoError(t, err)
		err = svc.MarkAsReceivedWithExisting(user.ID, otherReceivable.ID, income.ID)
		testutil.AssertAppError(t, err, "PAYMENT_ALREADY_LINKED")
	})

	t.Run("rejects_expense_as_payment", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)

		expense := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 15000)
		receivable, err := svc.MarkReceivable(user.ID, expense.ID, nil)
		testutil.AssertNoError(t, err)
		notIncome := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 15000)

		err = svc.MarkAsReceivedWithExisting(user.ID, receivable.ID, notIncome.ID)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUnmarkReceivable(t *testing.T) {
	t.Run("deletes_payment_and_clears_flags", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewReceivableService(deps.db, deps.accounts, deps.movements)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)

		expense := testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 20000)
		receivable, err := svc.MarkReceivable(user.ID, expense.ID, nil)
		testutil.AssertNoError(t, err)
		_, err = svc.MarkAsReceived(user.ID, receivable.ID, &account.ID)
		testutil.AssertNoError(t, err)

		cleared, err := svc.UnmarkReceivable(user.ID, receivable.ID)
		testutil.AssertNoError(t, err)

		if cleared.Receivable || cleared.Received {
			t.Errorf("expected flags cleared, got receivable=%v received=%v", cleared.Receivable, cleared.Received)
		}
		var count int64
		deps.db.Model(&models.Movement{}).Where("receivable_id = ?", receivable.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected payment deleted, found %d", count)
		}
	})
}
