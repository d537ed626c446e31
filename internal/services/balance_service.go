package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "platita/internal/errors"
	"platita/internal/models"
)

// balanceService computes read-only balance projections. It never writes:
// converted totals are display values, not stored state.
type balanceService struct {
	db       *gorm.DB
	accounts AccountServicer
	rates    RateServicer
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(db *gorm.DB, accounts AccountServicer, rates RateServicer) BalanceServicer {
	return &balanceService{db: db, accounts: accounts, rates: rates}
}

// AccountBalance computes one account's balance in its own currency:
// initial balance plus incomes minus expenses.
func (s *balanceService) AccountBalance(userID, accountID string) (*AccountBalance, error) {
	account, err := s.accounts.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}
	balance, err := s.accountBalance(account)
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// TotalBalance computes every active account's balance and the grand total
// in CLP. Dollar balances are converted through the rate cache for display
// only.
func (s *balanceService) TotalBalance(ctx context.Context, userID string) (*TotalBalance, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := &TotalBalance{Accounts: make([]AccountBalance, 0, len(accounts))}
	var rate int64
	for i := range accounts {
		balance, err := s.accountBalance(&accounts[i])
		if err != nil {
			return nil, err
		}
		total.Accounts = append(total.Accounts, *balance)

		switch accounts[i].Currency {
		case models.CurrencyUSD:
			if rate == 0 {
				rate, err = s.rates.GetRate(ctx, models.CurrencyUSD, models.CurrencyCLP)
				if err != nil {
					return nil, err
				}
			}
			total.TotalCLP += clpFromUSD(balance.Balance, rate)
		default:
			total.TotalCLP += balance.Balance
		}
	}
	return total, nil
}

// DailyTotals aggregates income and expense per calendar day over a date
// range. Transfer legs are excluded: money moving between owned accounts
// is neither income nor expense.
func (s *balanceService) DailyTotals(userID string, from, to time.Time) ([]DailyTotal, error) {
	var rows []models.Movement
	if err := s.db.Select("date", "type", "amount").
		Where("user_id = ? AND transfer_id IS NULL AND date >= ? AND date <= ?", userID, from, to).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byDay := make(map[string]*DailyTotal)
	for i := range rows {
		day := rows[i].Date.Format("2006-01-02")
		entry, ok := byDay[day]
		if !ok {
			entry = &DailyTotal{Date: day}
			byDay[day] = entry
		}
		switch rows[i].Type {
		case models.MovementTypeIncome:
			entry.Income += rows[i].Amount
		case models.MovementTypeExpense:
			entry.Expense += rows[i].Amount
		}
	}

	totals := make([]DailyTotal, 0, len(byDay))
	for _, entry := range byDay {
		totals = append(totals, *entry)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals, nil
}

// accountBalance sums movements in the account's own currency. USD
// accounts read the USD slot, falling back to the local slot for rows
// written before the dual-slot scheme existed.
func (s *balanceService) accountBalance(account *models.Account) (*AccountBalance, error) {
	amountExpr := "amount"
	if account.Currency == models.CurrencyUSD {
		amountExpr = "COALESCE(amount_usd, amount)"
	}

	type typeSum struct {
		Type  models.MovementType
		Total int64
	}
	var sums []typeSum
	if err := s.db.Model(&models.Movement{}).
		Select("type, COALESCE(SUM("+amountExpr+"), 0) AS total").
		Where("account_id = ?", account.ID).
		Group("type").
		Scan(&sums).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := account.InitialBalance
	for _, s := range sums {
		switch s.Type {
		case models.MovementTypeIncome:
			balance += s.Total
		case models.MovementTypeExpense:
			balance -= s.Total
		}
	}

	return &AccountBalance{
		AccountID: account.ID,
		Name:      account.Name,
		Currency:  account.Currency,
		Balance:   balance,
	}, nil
}
