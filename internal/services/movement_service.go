package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "platita/internal/errors"
	"platita/internal/models"
	"platita/internal/pagination"
)

// movementService owns the movement table.
type movementService struct {
	db       *gorm.DB
	accounts AccountServicer
	rates    RateServicer
}

// NewMovementService creates a new MovementServicer.
func NewMovementService(db *gorm.DB, accounts AccountServicer, rates RateServicer) MovementServicer {
	return &movementService{db: db, accounts: accounts, rates: rates}
}

// CreateMovement creates a new movement for the user, normalizing the
// input amount against the owning account's currency. A failed rate fetch
// aborts the write; no partial movement is persisted.
func (s *movementService) CreateMovement(ctx context.Context, userID string, input MovementInput) (*models.Movement, error) {
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "movement name is required")
	}
	if input.Type != models.MovementTypeIncome && input.Type != models.MovementTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
	}
	if input.Currency == "" {
		input.Currency = models.CurrencyCLP
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	var account *models.Account
	if input.AccountID != nil {
		var err error
		account, err = s.accounts.GetAccountByID(userID, *input.AccountID)
		if err != nil {
			return nil, err
		}
	}
	if input.CategoryID != nil {
		if err := verifyCategoryOwner(s.db, userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	norm, err := s.normalizeFor(ctx, input.Amount, input.Currency, account)
	if err != nil {
		return nil, err
	}

	movement := &models.Movement{
		UserID:       userID,
		AccountID:    input.AccountID,
		CategoryID:   input.CategoryID,
		Name:         input.Name,
		Type:         input.Type,
		Amount:       norm.Amount,
		AmountUSD:    norm.AmountUSD,
		ExchangeRate: norm.ExchangeRate,
		Date:         input.Date,
		TimeOfDay:    input.TimeOfDay,
		NeedsReview:  input.NeedsReview,
	}

	if err := s.db.Create(movement).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return movement, nil
}

// GetMovementByID retrieves a movement by ID for a specific user
func (s *movementService) GetMovementByID(userID, movementID string) (*models.Movement, error) {
	var movement models.Movement
	if err := s.db.Where("id = ? AND user_id = ?", movementID, userID).First(&movement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMovementNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &movement, nil
}

// UpdateMovement updates an ordinary movement. Transfer legs are rejected:
// their rows are only mutated through the transfer operations, so an update
// call can never corrupt pairing. Linkage columns are not reachable from
// MovementUpdateFields at all.
func (s *movementService) UpdateMovement(ctx context.Context, userID, movementID string, fields MovementUpdateFields) (*models.Movement, error) {
	movement, err := s.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, err
	}
	if movement.IsTransferLeg() {
		return nil, apperrors.ErrMovementNotEditable
	}

	updates := make(map[string]interface{})

	account, err := s.resolveAccount(userID, movement, fields.AccountID, updates)
	if err != nil {
		return nil, err
	}

	if fields.CategoryID != nil {
		if *fields.CategoryID == nil {
			updates["category_id"] = nil
		} else {
			if err := verifyCategoryOwner(s.db, userID, **fields.CategoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = **fields.CategoryID
		}
	}

	if fields.Name != nil && *fields.Name != "" && *fields.Name != movement.Name {
		if movement.OriginalName == nil {
			updates["original_name"] = movement.Name
		}
		updates["name"] = *fields.Name
	}
	if fields.Date != nil {
		updates["date"] = *fields.Date
	}
	if fields.TimeOfDay != nil {
		updates["time_of_day"] = *fields.TimeOfDay
	}

	// A changed amount, input currency, or account re-runs normalization.
	if fields.Amount != nil || fields.Currency != nil || fields.AccountID != nil {
		amount := movement.Amount
		if fields.Amount != nil {
			if *fields.Amount <= 0 {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
			}
			amount = *fields.Amount
		}
		// The carried amount is denominated in the account the movement
		// belonged to before this update, so a move between accounts of
		// different currencies converts instead of reinterpreting.
		inputCurrency, err := s.currentDenomination(userID, movement)
		if err != nil {
			return nil, err
		}
		if fields.Currency != nil {
			inputCurrency = *fields.Currency
		}

		norm, err := s.normalizeFor(ctx, amount, inputCurrency, account)
		if err != nil {
			return nil, err
		}
		updates["amount"] = norm.Amount
		updates["amount_usd"] = norm.AmountUSD
		updates["exchange_rate"] = norm.ExchangeRate
	}

	if len(updates) > 0 {
		if err := s.db.Model(movement).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", movement.ID).First(movement).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return movement, nil
}

// DeleteMovement deletes an ordinary movement. Transfer legs must go
// through DeleteTransfer so both rows disappear together. If an income
// movement settles this row as a receivable payment, its link is cleared
// in the same transaction so no receivable_id dangles.
func (s *movementService) DeleteMovement(userID, movementID string) error {
	movement, err := s.GetMovementByID(userID, movementID)
	if err != nil {
		return err
	}
	if movement.IsTransferLeg() {
		return apperrors.ErrMovementNotEditable
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Movement{}).
			Where("receivable_id = ?", movement.ID).
			Update("receivable_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(movement).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ListMovements retrieves a paginated, filtered list of the user's movements.
func (s *movementService) ListMovements(userID string, page pagination.PageRequest, filter MovementFilter) (*pagination.PageResponse[models.Movement], error) {
	page.Defaults()

	base := s.db.Model(&models.Movement{}).Where("user_id = ?", userID)
	base = applyMovementFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var movements []models.Movement
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC, created_at DESC").
		Find(&movements).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(movements, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyMovementFilters(q *gorm.DB, f MovementFilter) *gorm.DB {
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.NeedsReview != nil {
		q = q.Where("needs_review = ?", *f.NeedsReview)
	}
	if f.Receivable != nil {
		q = q.Where("receivable = ?", *f.Receivable)
	}
	if f.Received != nil {
		q = q.Where("received = ?", *f.Received)
	}
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	return q
}

// ConfirmReview clears the needs-review flag, optionally renaming the
// movement while preserving its original label.
func (s *movementService) ConfirmReview(userID, movementID string, name *string) (*models.Movement, error) {
	movement, err := s.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"needs_review": false}
	if name != nil && *name != "" && *name != movement.Name {
		if movement.OriginalName == nil {
			updates["original_name"] = movement.Name
		}
		updates["name"] = *name
	}

	if err := s.db.Model(movement).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Where("id = ?", movement.ID).First(movement).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return movement, nil
}

// resolveAccount returns the account the movement will belong to after the
// update, verifying ownership of a new account reference.
func (s *movementService) resolveAccount(userID string, movement *models.Movement, newAccountID *string, updates map[string]interface{}) (*models.Account, error) {
	accountID := movement.AccountID
	if newAccountID != nil {
		accountID = newAccountID
		updates["account_id"] = *newAccountID
	}
	if accountID == nil {
		return nil, nil
	}
	return s.accounts.GetAccountByID(userID, *accountID)
}

// normalizeFor normalizes an input amount for the given account, fetching
// the USD/CLP rate only when the currency path requires one.
func (s *movementService) normalizeFor(ctx context.Context, amount int64, inputCurrency models.Currency, account *models.Account) (Normalized, error) {
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

// accountCurrency returns the currency amounts are stored in for the given
// account; accountless movements are peso-denominated.
func accountCurrency(account *models.Account) models.Currency {
	if account == nil {
		return models.CurrencyCLP
	}
	return account.Currency
}

// currentDenomination returns the currency movement.Amount is currently
// expressed in, which is the currency of the account it was stored under.
func (s *movementService) currentDenomination(userID string, movement *models.Movement) (models.Currency, error) {
	if movement.AccountID == nil {
		return models.CurrencyCLP, nil
	}
	account, err := s.accounts.GetAccountByID(userID, *movement.AccountID)
	if err != nil {
		return "", err
	}
	return account.Currency, nil
}

// verifyCategoryOwner checks the category exists and belongs to the user.
// A foreign category is reported identically to a missing one.
func verifyCategoryOwner(db *gorm.DB, userID, categoryID string) error {
	var count int64
	if err := db.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
