package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "platita/internal/errors"
	"platita/internal/models"
)

// receivableService tracks IOUs: a movement flagged receivable stays
// unresolved until a payment movement settles it. One income settles at
// most one receivable.
type receivableService struct {
	db        *gorm.DB
	accounts  AccountServicer
	movements MovementServicer
}

// NewReceivableService creates a new ReceivableServicer.
func NewReceivableService(db *gorm.DB, accounts AccountServicer, movements MovementServicer) ReceivableServicer {
	return &receivableService{db: db, accounts: accounts, movements: movements}
}

// MarkReceivable flags a movement as an unresolved IOU. The flag is
// orthogonal to type and amount; only the name may change, to carry a
// reminder text. Marking also clears the review flag, since deciding a
// movement is an IOU is a human confirmation.
func (s *receivableService) MarkReceivable(userID, movementID string, note *string) (*models.Movement, error) {
	movement, err := s.movements.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, err
	}
	if movement.IsTransferLeg() {
		return nil, apperrors.ErrMovementNotEditable
	}

	updates := map[string]interface{}{
		"receivable":   true,
		"needs_review": false,
	}
	if note != nil && *note != "" && *note != movement.Name {
		if movement.OriginalName == nil {
			updates["original_name"] = movement.Name
		}
		updates["name"] = *note
	}

	if err := s.db.Model(movement).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.movements.GetMovementByID(userID, movementID)
}

// UnmarkReceivable reverts a movement to an ordinary one. Any payment
// movement created or attached by a prior resolution is deleted first, so
// the books do not keep an income whose reason no longer exists.
func (s *receivableService) UnmarkReceivable(userID, movementID string) (*models.Movement, error) {
	movement, err := s.movements.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, err
	}
	if !movement.Receivable {
		return nil, apperrors.ErrNotAReceivable
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receivable_id = ? AND user_id = ?", movement.ID, userID).
			Delete(&models.Movement{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates := map[string]interface{}{
			"receivable": false,
			"received":   false,
		}
		if err := tx.Model(movement).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.movements.GetMovementByID(userID, movementID)
}

// MarkAsReceived resolves a receivable. With an account it atomically
// inserts an income movement dated today, carrying the receivable's
// amounts and a back-reference. Without one the settlement is untracked
// (paid in cash) and only the received flag changes.
func (s *receivableService) MarkAsReceived(userID, movementID string, accountID *string) (*models.Movement, error) {
	movement, err := s.movements.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, err
	}
	if !movement.Receivable {
		return nil, apperrors.ErrNotAReceivable
	}
	if movement.Received {
		return nil, apperrors.ErrReceivableAlreadyResolved
	}

	var payment *models.Movement
	if accountID != nil {
		if _, err := s.accounts.GetAccountByID(userID, *accountID); err != nil {
			return nil, err
		}
		payment = &models.Movement{
			UserID:       userID,
			AccountID:    accountID,
			Name:         movement.Name,
			Type:         models.MovementTypeIncome,
			Amount:       movement.Amount,
			AmountUSD:    movement.AmountUSD,
			ExchangeRate: movement.ExchangeRate,
			Date:         time.Now().Truncate(24 * time.Hour),
			ReceivableID: &movement.ID,
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(movement).Update("received", true).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if payment != nil {
			if err := tx.Create(payment).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.movements.GetMovementByID(userID, movementID)
}

// MarkAsReceivedWithExisting resolves a receivable by attaching an income
// movement that already exists, instead of creating one. The income must
// not already settle another receivable.
func (s *receivableService) MarkAsReceivedWithExisting(userID, receivableID, incomeID string) error {
	receivable, err := s.movements.GetMovementByID(userID, receivableID)
	if err != nil {
		return err
	}
	if !receivable.Receivable {
		return apperrors.ErrNotAReceivable
	}
	if receivable.Received {
		return apperrors.ErrReceivableAlreadyResolved
	}

	income, err := s.movements.GetMovementByID(userID, incomeID)
	if err != nil {
		return err
	}
	if income.Type != models.MovementTypeIncome {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "settling movement must be an income")
	}
	if income.ReceivableID != nil {
		return apperrors.ErrPaymentAlreadyLinked
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(receivable).Update("received", true).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(income).Update("receivable_id", receivable.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
