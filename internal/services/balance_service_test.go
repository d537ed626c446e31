package services

import (
	"context"
	"testing"
	"time"

	"platita/internal/models"
	"platita/internal/testutil"
)

func TestAccountBalance(t *testing.T) {
	t.Run("initial_plus_income_minus_expense", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewBalanceService(deps.db, deps.accounts, deps.rates)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, user.ID, 100000)

		testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeIncome, 50000)
		testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 30000)
		testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 20000)

		balance, err := svc.AccountBalance(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if balance.Balance != 100000 {
			t.Errorf("expected balance 100000, got %d", balance.Balance)
		}
		if balance.Currency != models.CurrencyCLP {
			t.Errorf("expected CLP balance, got %s", balance.Currency)
		}
	})

	t.Run("usd_account_sums_usd_slot", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewBalanceService(deps.db, deps.accounts, deps.rates)
		user := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccountWithCurrency(t, deps.db, user.ID, models.CurrencyUSD, 0)

		_, err := deps.movements.CreateMovement(context.Background(), user.ID, MovementInput{
			AccountID: &account.ID,
			Name:      "Salary",
			Type:      models.MovementTypeIncome,
			Amount:    120000, // USD cents
			Currency:  models.CurrencyUSD,
		})
		testutil.AssertNoError(t, err)

		// A legacy row with no USD slot falls back to the local slot.
		testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 20000)

		balance, err := svc.AccountBalance(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if balance.Balance != 100000 {
			t.Errorf("expected balance 100000 cents, got %d", balance.Balance)
		}
	})

	t.Run("foreign_account_rejected", func(t *testing.T) {
		deps, teardown := newLedgerDeps(t)
		defer teardown()
		svc := NewBalanceService(deps.db, deps.accounts, deps.rates)
		user := testutil.CreateTestUser(t, deps.db)
		other := testutil.CreateTestUser(t, deps.db)
		account := testutil.CreateTestAccount(t, deps.db, other.ID, 0)

		_, err := svc.AccountBalance(user.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

// TestTotalBalanceTransferScenario walks the cross-currency example: a
// 50000 CLP transfer into a dollar account at rate 950.00 lands as 5263
// cents, and deleting the transfer restores both balances.
func TestTotalBalanceTransferScenario(t *testing.T) {
	ctx := context.Background()
	deps, teardown := newLedgerDeps(t)
	defer teardown()
	balances := NewBalanceService(deps.db, deps.accounts, deps.rates)
	transfers := NewTransferService(deps.db, deps.accounts, deps.movements, deps.rates)
	user := testutil.CreateTestUser(t, deps.db)
	clpAccount := testutil.CreateTestAccount(t, deps.db, user.ID, 100000)
	usdAccount := testutil.CreateTestAccountWithCurrency(t, deps.db, user.ID, models.CurrencyUSD, 0)

	expense, _, err := transfers.CreateTransfer(ctx, user.ID, TransferInput{
		FromAccountID: clpAccount.ID,
		ToAccountID:   usdAccount.ID,
		Amount:        50000,
	})
	testutil.AssertNoError(t, err)

	clpBalance, err := balances.AccountBalance(user.ID, clpAccount.ID)
	testutil.AssertNoError(t, err)
	if clpBalance.Balance != 50000 {
		t.Errorf("expected CLP balance 50000, got %d", clpBalance.Balance)
	}

	usdBalance, err := balances.AccountBalance(user.ID, usdAccount.ID)
	testutil.AssertNoError(t, err)
	if usdBalance.Balance != 5263 {
		t.Errorf("expected USD balance 5263 cents, got %d", usdBalance.Balance)
	}

	total, err := balances.TotalBalance(ctx, user.ID)
	testutil.AssertNoError(t, err)
	// 50000 CLP remaining + 5263 cents at 950.00 = 49999 CLP (rounding).
	if want := int64(50000 + 49999); total.TotalCLP != want {
		t.Errorf("expected total %d CLP, got %d", want, total.TotalCLP)
	}

	testutil.AssertNoError(t, transfers.DeleteTransfer(user.ID, *expense.TransferID))

	clpBalance, err = balances.AccountBalance(user.ID, clpAccount.ID)
	testutil.AssertNoError(t, err)
	usdBalance, err = balances.AccountBalance(user.ID, usdAccount.ID)
	testutil.AssertNoError(t, err)
	if clpBalance.Balance != 100000 || usdBalance.Balance != 0 {
		t.Errorf("expected balances restored, got %d / %d", clpBalance.Balance, usdBalance.Balance)
	}
}

func TestDailyTotals(t *testing.T) {
	deps, teardown := newLedgerDeps(t)
	defer teardown()
	svc := NewBalanceService(deps.db, deps.accounts, deps.rates)
	transfers := NewTransferService(deps.db, deps.accounts, deps.movements, deps.rates)
	user := testutil.CreateTestUser(t, deps.db)
	account := testutil.CreateTestAccount(t, deps.db, user.ID, 0)
	other := testutil.CreateTestAccount(t, deps.db, user.ID, 0)

	today := time.Now().Truncate(24 * time.Hour)
	testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeIncome, 80000)
	testutil.CreateTestMovement(t, deps.db, user.ID, account.ID, models.MovementTypeExpense, 30000)

	// Transfer legs stay out of the daily aggregates.
	_, _, err := transfers.CreateTransfer(context.Background(), user.ID, TransferInput{
		FromAccountID: account.ID,
		ToAccountID:   other.ID,
		Amount:        10000,
		Date:          today,
	})
	testutil.AssertNoError(t, err)

	totals, err := svc.DailyTotals(user.ID, today.AddDate(0, 0, -1), today.AddDate(0, 0, 1))
	testutil.AssertNoError(t, err)

	if len(totals) != 1 {
		t.Fatalf("expected one aggregated day, got %d", len(totals))
	}
	if totals[0].Date != today.Format("2006-01-02") {
		t.Errorf("unexpected day %q", totals[0].Date)
	}
	if totals[0].Income != 80000 || totals[0].Expense != 30000 {
		t.Errorf("expected 80000/30000, got %d/%d", totals[0].Income, totals[0].Expense)
	}
}
