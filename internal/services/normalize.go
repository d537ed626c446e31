package services

import (
	apperrors "platita/internal/errors"
	"platita/internal/models"
)

// Normalized is the dual local/USD representation stored on a movement:
// Amount in the account's currency, AmountUSD in cents when a USD leg
// exists, and the rate used at write time (two implied decimals).
type Normalized struct {
	Amount       int64
	AmountUSD    *int64
	ExchangeRate *int64
}

// RateNeeded reports whether normalizing between the two currencies
// requires a live exchange rate.
func RateNeeded(inputCurrency, accountCurrency models.Currency) bool {
	return inputCurrency != accountCurrency
}

// Normalize converts an input amount into the stored representation for an
// account. CLP amounts are integer pesos; USD amounts are integer cents;
// rate carries two implied decimals (95050 = 950.50 CLP per USD).
//
//   - input USD, account CLP: AmountUSD = input, Amount = input converted
//     to pesos at the rate.
//   - input CLP, account USD: Amount keeps the peso input for display
//     continuity, AmountUSD = input converted to cents at the rate.
//   - input currency equals account currency: no conversion; AmountUSD is
//     populated only when that currency is USD.
//
// rate is ignored when no conversion is needed and must be positive otherwise.
func Normalize(amount int64, inputCurrency, accountCurrency models.Currency, rate int64) (Normalized, error) {
	if !RateNeeded(inputCurrency, accountCurrency) {
		if inputCurrency == models.CurrencyUSD {
			usd := amount
			return Normalized{Amount: amount, AmountUSD: &usd}, nil
		}
		return Normalized{Amount: amount}, nil
	}

	if rate <= 0 {
		return Normalized{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "a positive exchange rate is required to convert currencies")
	}

	r := rate
	switch inputCurrency {
	case models.CurrencyUSD:
		usd := amount
		return Normalized{Amount: clpFromUSD(amount, rate), AmountUSD: &usd, ExchangeRate: &r}, nil
	case models.CurrencyCLP:
		usd := usdFromCLP(amount, rate)
		return Normalized{Amount: amount, AmountUSD: &usd, ExchangeRate: &r}, nil
	default:
		return Normalized{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency "+string(inputCurrency))
	}
}

// clpFromUSD converts USD cents to whole pesos at the given rate.
func clpFromUSD(usdCents, rate int64) int64 {
	return roundDiv(usdCents*rate, 10000)
}

// usdFromCLP converts whole pesos to USD cents at the given rate.
func usdFromCLP(clp, rate int64) int64 {
	return roundDiv(clp*10000, rate)
}

// roundDiv divides rounding half away from zero. Amounts and rates in the
// ledger are positive, but negatives round symmetrically anyway.
func roundDiv(n, d int64) int64 {
	if (n < 0) != (d < 0) {
		return (n - d/2) / d
	}
	return (n + d/2) / d
}

// prorate returns round(total * part / whole), used to carry a USD amount
// proportionally onto split parts.
func prorate(total, part, whole int64) int64 {
	return roundDiv(total*part, whole)
}
