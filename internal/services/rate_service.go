package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "platita/internal/errors"
	"platita/internal/logger"
	"platita/internal/models"
	"platita/internal/rates"
)

// rateService caches external exchange rates in the database.
type rateService struct {
	db        *gorm.DB
	source    rates.Source
	freshness time.Duration
	now       func() time.Time
}

// NewRateService creates a RateServicer backed by the given external source.
// Cached rates younger than freshness are served without a fetch.
func NewRateService(db *gorm.DB, source rates.Source, freshness time.Duration) RateServicer {
	return &rateService{
		db:        db,
		source:    source,
		freshness: freshness,
		now:       time.Now,
	}
}

// GetRate returns the from→to rate with two implied decimals.
//
// The freshest cached row younger than the freshness threshold wins.
// Otherwise the external source is queried and the result inserted under a
// key derived from the current UTC minute: two requests racing in the same
// window collide on the primary key, and the loser re-reads the winner's
// row instead of erroring. A failed fetch falls back to the last cached
// value; only a fetch failure with an empty cache surfaces an error.
func (s *rateService) GetRate(ctx context.Context, from, to models.Currency) (int64, error) {
	if from == to {
		return 100, nil
	}

	var cached models.ExchangeRate
	cacheErr := s.db.
		Where("from_currency = ? AND to_currency = ?", from, to).
		Order("fetched_at DESC").
		First(&cached).Error
	if cacheErr != nil && !errors.Is(cacheErr, gorm.ErrRecordNotFound) {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, cacheErr)
	}
	haveCache := cacheErr == nil

	if haveCache && s.now().Sub(cached.FetchedAt) < s.freshness {
		return cached.Rate, nil
	}

	raw, fetchErr := s.source.FetchRate(ctx, string(from), string(to))
	if fetchErr != nil {
		if haveCache {
			logger.Get().Warnw("rate fetch failed, serving stale cache",
				"pair", string(from)+"/"+string(to),
				"fetched_at", cached.FetchedAt,
				"error", fetchErr.Error(),
			)
			return cached.Rate, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrRateUnavailable, fetchErr)
	}

	rate := raw.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if rate <= 0 {
		if haveCache {
			return cached.Rate, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrRateUnavailable, fmt.Errorf("source returned non-positive rate %s", raw))
	}

	fetchedAt := s.now()
	entry := models.ExchangeRate{
		Base:         models.Base{ID: rateWindowID(from, to, fetchedAt)},
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Source:       s.source.Name(),
		FetchedAt:    fetchedAt,
	}

	if err := s.db.Create(&entry).Error; err != nil {
		// A concurrent caller in the same window already wrote this key.
		var existing models.ExchangeRate
		if rerr := s.db.First(&existing, "id = ?", entry.ID).Error; rerr == nil {
			return existing.Rate, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return rate, nil
}

// rateWindowID derives a deterministic cache key from the pair and the
// UTC minute of the fetch.
func rateWindowID(from, to models.Currency, t time.Time) string {
	return fmt.Sprintf("%s-%s-%s", from, to, t.UTC().Format("200601021504"))
}
