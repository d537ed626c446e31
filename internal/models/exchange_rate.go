package models

import "time"

// ExchangeRate is one cached fetch of an external currency rate.
//
// Rows are append-only: the id is derived deterministically from the
// currency pair and the UTC minute of the fetch, so two requests racing
// in the same window collide on the primary key and the loser re-reads
// the winner's row instead of erroring.
type ExchangeRate struct {
	Base
	FromCurrency Currency  `gorm:"not null;index:idx_rate_pair" json:"from_currency"`
	ToCurrency   Currency  `gorm:"not null;index:idx_rate_pair" json:"to_currency"`
	Rate         int64     `gorm:"type:bigint;not null" json:"rate"` // two implied decimals, 95050 = 950.50
	Source       string    `json:"source"`
	FetchedAt    time.Time `gorm:"not null;index" json:"fetched_at"`
}
