package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "platita/internal/errors"
	"platita/internal/models"
	"platita/internal/uuid"
)

// transferService creates and maintains transfer pairs: two cross-linked
// movements (one expense, one income) representing one transfer.
type transferService struct {
	db        *gorm.DB
	accounts  AccountServicer
	movements MovementServicer
	rates     RateServicer
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, accounts AccountServicer, movements MovementServicer, rates RateServicer) TransferServicer {
	return &transferService{db: db, accounts: accounts, movements: movements, rates: rates}
}

// CreateTransfer inserts both legs of a transfer as one atomic unit. Each
// leg is normalized independently against its own account's currency, so a
// transfer may cross currencies. All validation happens before the
// transaction opens.
func (s *transferService) CreateTransfer(ctx context.Context, userID string, input TransferInput) (*models.Movement, *models.Movement, error) {
	if input.Amount <= 0 {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, nil, apperrors.ErrSameAccountTransfer
	}
	if input.Currency == "" {
		input.Currency = models.CurrencyCLP
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	from, err := s.accounts.GetAccountByID(userID, input.FromAccountID)
	if err != nil {
		return nil, nil, err
	}
	to, err := s.accounts.GetAccountByID(userID, input.ToAccountID)
	if err != nil {
		return nil, nil, err
	}

	fromNorm, err := s.normalizeLeg(ctx, input.Amount, input.Currency, from)
	if err != nil {
		return nil, nil, err
	}
	toNorm, err := s.normalizeLeg(ctx, input.Amount, input.Currency, to)
	if err != nil {
		return nil, nil, err
	}

	expenseName := input.Note
	incomeName := input.Note
	if input.Note == "" {
		expenseName = "Transfer to " + bankLabel(to)
		incomeName = "Transfer from " + bankLabel(from)
	}

	transferID := uuid.New()
	expense := &models.Movement{
		Base:         models.Base{ID: uuid.New()},
		UserID:       userID,
		AccountID:    &from.ID,
		Name:         expenseName,
		Type:         models.MovementTypeExpense,
		Amount:       fromNorm.Amount,
		AmountUSD:    fromNorm.AmountUSD,
		ExchangeRate: fromNorm.ExchangeRate,
		Date:         input.Date,
		TransferID:   &transferID,
	}
	income := &models.Movement{
		Base:         models.Base{ID: uuid.New()},
		UserID:       userID,
		AccountID:    &to.ID,
		Name:         incomeName,
		Type:         models.MovementTypeIncome,
		Amount:       toNorm.Amount,
		AmountUSD:    toNorm.AmountUSD,
		ExchangeRate: toNorm.ExchangeRate,
		Date:         input.Date,
		TransferID:   &transferID,
	}
	expense.TransferPairID = &income.ID
	income.TransferPairID = &expense.ID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Create(income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return expense, income, nil
}

// ConvertToTransfer turns an existing ordinary movement into one leg of a
// transfer by creating its opposite leg on the destination account and
// linking both in place. The original loses its category (transfers are
// category-less) and its needs-review flag.
func (s *transferService) ConvertToTransfer(ctx context.Context, userID, movementID, toAccountID string) (*models.Movement, *models.Movement, error) {
	movement, err := s.movements.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, nil, err
	}
	if movement.IsTransferLeg() {
		return nil, nil, apperrors.ErrAlreadyTransfer
	}
	if movement.AccountID == nil {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "movement has no account")
	}
	if *movement.AccountID == toAccountID {
		return nil, nil, apperrors.ErrSameAccountTransfer
	}

	source, err := s.accounts.GetAccountByID(userID, *movement.AccountID)
	if err != nil {
		return nil, nil, err
	}
	dest, err := s.accounts.GetAccountByID(userID, toAccountID)
	if err != nil {
		return nil, nil, err
	}

	// Re-derive the input the original was written with: USD slot if the
	// source account is dollar-denominated, peso slot otherwise.
	inputAmount := movement.Amount
	inputCurrency := models.CurrencyCLP
	if source.Currency == models.CurrencyUSD && movement.AmountUSD != nil {
		inputAmount = *movement.AmountUSD
		inputCurrency = models.CurrencyUSD
	}

	norm, err := s.normalizeLeg(ctx, inputAmount, inputCurrency, dest)
	if err != nil {
		return nil, nil, err
	}

	pairType := models.MovementTypeIncome
	pairName := "Transfer from " + bankLabel(source)
	if movement.Type == models.MovementTypeIncome {
		pairType = models.MovementTypeExpense
		pairName = "Transfer to " + bankLabel(source)
	}

	transferID := uuid.New()
	pair := &models.Movement{
		Base:           models.Base{ID: uuid.New()},
		UserID:         userID,
		AccountID:      &dest.ID,
		Name:           pairName,
		Type:           pairType,
		Amount:         norm.Amount,
		AmountUSD:      norm.AmountUSD,
		ExchangeRate:   norm.ExchangeRate,
		Date:           movement.Date,
		TransferID:     &transferID,
		TransferPairID: &movement.ID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pair).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates := map[string]interface{}{
			"transfer_id":      transferID,
			"transfer_pair_id": pair.ID,
			"category_id":      nil,
			"needs_review":     false,
		}
		if err := tx.Model(movement).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	movement, err = s.movements.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, nil, err
	}
	return movement, pair, nil
}

// GetTransferLegs returns the expense and income legs sharing a transfer id.
func (s *transferService) GetTransferLegs(userID, transferID string) (*models.Movement, *models.Movement, error) {
	var legs []models.Movement
	if err := s.db.Where("transfer_id = ? AND user_id = ?", transferID, userID).Find(&legs).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(legs) != 2 {
		return nil, nil, apperrors.ErrTransferNotFound
	}

	var expense, income *models.Movement
	for i := range legs {
		switch legs[i].Type {
		case models.MovementTypeExpense:
			expense = &legs[i]
		case models.MovementTypeIncome:
			income = &legs[i]
		}
	}
	if expense == nil || income == nil {
		return nil, nil, apperrors.ErrTransferNotFound
	}
	return expense, income, nil
}

// UpdateTransfer edits amount, date, or note on both legs together.
// Accounts and direction never change.
func (s *transferService) UpdateTransfer(ctx context.Context, userID, transferID string, fields TransferUpdateFields) error {
	expense, income, err := s.GetTransferLegs(userID, transferID)
	if err != nil {
		return err
	}

	expenseUpdates := make(map[string]interface{})
	incomeUpdates := make(map[string]interface{})

	if fields.Amount != nil {
		if *fields.Amount <= 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		currency := models.CurrencyCLP
		if fields.Currency != nil {
			currency = *fields.Currency
		}

		for leg, updates := range map[*models.Movement]map[string]interface{}{
			expense: expenseUpdates,
			income:  incomeUpdates,
		} {
			var account *models.Account
			if leg.AccountID != nil {
				account, err = s.accounts.GetAccountByID(userID, *leg.AccountID)
				if err != nil {
					return err
				}
			}
			norm, err := s.normalizeLeg(ctx, *fields.Amount, currency, account)
			if err != nil {
				return err
			}
			updates["amount"] = norm.Amount
			updates["amount_usd"] = norm.AmountUSD
			updates["exchange_rate"] = norm.ExchangeRate
		}
	}

	if fields.Date != nil {
		expenseUpdates["date"] = *fields.Date
		incomeUpdates["date"] = *fields.Date
	}
	if fields.Note != nil && *fields.Note != "" {
		expenseUpdates["name"] = *fields.Note
		incomeUpdates["name"] = *fields.Note
	}

	if len(expenseUpdates) == 0 && len(incomeUpdates) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(expense).Updates(expenseUpdates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(income).Updates(incomeUpdates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// DeleteTransfer removes both legs in one operation; a lone leg is never
// left behind.
func (s *transferService) DeleteTransfer(userID, transferID string) error {
	if _, _, err := s.GetTransferLegs(userID, transferID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transfer_id = ? AND user_id = ?", transferID, userID).
			Delete(&models.Movement{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// normalizeLeg normalizes one leg's amount against its account, fetching
// the USD/CLP rate only when needed.
func (s *transferService) normalizeLeg(ctx context.Context, amount int64, inputCurrency models.Currency, account *models.Account) (Normalized, error) {
	accCurrency := accountCurrency(account)

	var rate int64
	if RateNeeded(inputCurrency, accCurrency) {
		var err error
		rate, err = s.rates.GetRate(ctx, models.CurrencyUSD, models.CurrencyCLP)
		if err != nil {
			return Normalized{}, err
		}
	}
	return Normalize(amount, inputCurrency, accCurrency, rate)
}

// bankLabel is the human label used in default transfer names.
func bankLabel(a *models.Account) string {
	if a.BankName != "" {
		return a.BankName
	}
	return a.Name
}
