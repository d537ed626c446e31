package services

import (
	"testing"

	"platita/internal/models"
)

func TestNormalize(t *testing.T) {
	t.Run("clp_into_clp_account", func(t *testing.T) {
		n, err := Normalize(40000, models.CurrencyCLP, models.CurrencyCLP, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Amount != 40000 {
			t.Errorf("expected amount 40000, got %d", n.Amount)
		}
		if n.AmountUSD != nil || n.ExchangeRate != nil {
			t.Error("expected no USD amount or rate for a pure CLP movement")
		}
	})

	t.Run("usd_into_usd_account", func(t *testing.T) {
		n, err := Normalize(5263, models.CurrencyUSD, models.CurrencyUSD, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Amount != 5263 {
			t.Errorf("expected amount 5263, got %d", n.Amount)
		}
		if n.AmountUSD == nil || *n.AmountUSD != 5263 {
			t.Error("expected amount_usd to mirror the input")
		}
		if n.ExchangeRate != nil {
			t.Error("expected no rate when no conversion happened")
		}
	})

	t.Run("clp_into_usd_account", func(t *testing.T) {
		// 50000 CLP at 950.00 CLP/USD is 52.63 USD.
		n, err := Normalize(50000, models.CurrencyCLP, models.CurrencyUSD, 95000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Amount != 50000 {
			t.Errorf("expected local slot to keep 50000, got %d", n.Amount)
		}
		if n.AmountUSD == nil || *n.AmountUSD != 5263 {
			t.Fatalf("expected amount_usd 5263, got %v", n.AmountUSD)
		}
		if n.ExchangeRate == nil || *n.ExchangeRate != 95000 {
			t.Error("expected rate 95000 recorded")
		}
	})

	t.Run("usd_into_clp_account", func(t *testing.T) {
		// 100.00 USD at 950.50 CLP/USD is 95050 pesos.
		n, err := Normalize(10000, models.CurrencyUSD, models.CurrencyCLP, 95050)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Amount != 95050 {
			t.Errorf("expected amount 95050, got %d", n.Amount)
		}
		if n.AmountUSD == nil || *n.AmountUSD != 10000 {
			t.Error("expected amount_usd to keep the USD input exactly")
		}
	})

	t.Run("usd_round_trip_is_exact", func(t *testing.T) {
		// The USD slot stores the input verbatim, whatever the rate does
		// to the peso slot.
		for _, cents := range []int64{1, 99, 12345, 1000000} {
			n, err := Normalize(cents, models.CurrencyUSD, models.CurrencyCLP, 87342)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n.AmountUSD == nil || *n.AmountUSD != cents {
				t.Errorf("round trip broke for %d cents: got %v", cents, n.AmountUSD)
			}
		}
	})

	t.Run("missing_rate_rejected", func(t *testing.T) {
		if _, err := Normalize(1000, models.CurrencyUSD, models.CurrencyCLP, 0); err == nil {
			t.Fatal("expected error when converting without a rate")
		}
	})

	t.Run("unsupported_currency_rejected", func(t *testing.T) {
		if _, err := Normalize(1000, models.Currency("EUR"), models.CurrencyCLP, 80000); err == nil {
			t.Fatal("expected error for unsupported currency")
		}
	})
}

func TestRoundDiv(t *testing.T) {
	cases := []struct {
		n, d, want int64
	}{
		{10, 4, 3},   // 2.5 rounds up
		{9, 4, 2},    // 2.25 rounds down
		{-10, 4, -3}, // symmetric for negatives
		{0, 5, 0},
	}
	for _, c := range cases {
		if got := roundDiv(c.n, c.d); got != c.want {
			t.Errorf("roundDiv(%d, %d) = %d, want %d", c.n, c.d, got, c.want)
		}
	}
}
