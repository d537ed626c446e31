package models

// Currency is an ISO 4217 code. The ledger supports Chilean pesos and
// US dollars; amounts are stored in integer minor units (pesos for CLP,
// cents for USD).
type Currency string

const (
	CurrencyCLP Currency = "CLP"
	CurrencyUSD Currency = "USD"
)

// Account represents a bank account owned by a user.
//
// Currency is treated as immutable once movements reference the account:
// updates never touch it, so stored amounts keep their meaning.
type Account struct {
	Base
	UserID         string   `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string   `gorm:"not null" json:"name"`
	BankName       string   `json:"bank_name"`
	Currency       Currency `gorm:"not null;default:'CLP'" json:"currency"`
	InitialBalance int64    `gorm:"type:bigint;not null;default:0" json:"initial_balance"`
	Color          string   `json:"color"`
	IsActive       bool     `gorm:"default:true" json:"is_active"`

	Movements []Movement `gorm:"foreignKey:AccountID" json:"movements,omitempty"`
}
