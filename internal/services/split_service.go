package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "platita/internal/errors"
	"platita/internal/models"
	"platita/internal/uuid"
)

const (
	splitMinParts = 2
	splitMaxParts = 20
)

// splitService replaces one movement with several whose amounts partition
// the original exactly. No rounding adjustment ever happens on the local
// amount: a sum mismatch is the caller's error.
type splitService struct {
	db        *gorm.DB
	movements MovementServicer
	now       func() time.Time
}

// NewSplitService creates a new SplitServicer.
func NewSplitService(db *gorm.DB, movements MovementServicer) SplitServicer {
	return &splitService{db: db, movements: movements, now: time.Now}
}

// Split deletes the original and inserts one movement per part as one
// atomic unit. Parts inherit the original's account, category, date, and
// time; their created-at is nudged into the future so a review queue
// ordered by recency surfaces them first. The USD slot is prorated by each
// part's share of the local amount.
func (s *splitService) Split(userID, movementID string, parts []SplitPart) ([]models.Movement, error) {
	if len(parts) < splitMinParts || len(parts) > splitMaxParts {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "split requires between 2 and 20 parts")
	}

	var sum int64
	for _, p := range parts {
		if p.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "every part amount must be greater than zero")
		}
		if p.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "every part needs a name")
		}
		sum += p.Amount
	}

	original, err := s.movements.GetMovementByID(userID, movementID)
	if err != nil {
		return nil, err
	}
	if original.IsTransferLeg() {
		return nil, apperrors.ErrMovementNotEditable
	}
	if sum != original.Amount {
		return nil, apperrors.ErrSplitSumMismatch
	}

	// The original's pre-edit label travels to every part, so the source
	// of a split row stays traceable after the original is gone.
	tag := original.OriginalName
	if tag == nil {
		tag = &original.Name
	}

	base := s.now().Add(time.Minute)
	rows := make([]models.Movement, len(parts))
	for i, p := range parts {
		var usd *int64
		if original.AmountUSD != nil {
			v := prorate(*original.AmountUSD, p.Amount, original.Amount)
			usd = &v
		}
		rows[i] = models.Movement{
			Base: models.Base{
				ID:        uuid.New(),
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			},
			UserID:       userID,
			AccountID:    original.AccountID,
			CategoryID:   original.CategoryID,
			Name:         p.Name,
			OriginalName: tag,
			Type:         original.Type,
			Amount:       p.Amount,
			AmountUSD:    usd,
			ExchangeRate: original.ExchangeRate,
			Date:         original.Date,
			TimeOfDay:    original.TimeOfDay,
			NeedsReview:  true,
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Same hygiene as deleting: a payment income linked to the
		// original must not keep pointing at the removed row.
		if err := tx.Model(&models.Movement{}).
			Where("receivable_id = ?", original.ID).
			Update("receivable_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(original).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
