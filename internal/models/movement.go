package models

import "time"

// MovementType represents the direction of a movement
type MovementType string

const (
	MovementTypeIncome  MovementType = "income"
	MovementTypeExpense MovementType = "expense"
)

// Movement is one income or expense ledger entry.
//
// Amount is always expressed in the owning account's currency. AmountUSD
// is populated whenever either the input or the account currency was USD,
// so balance math never needs a live conversion. ExchangeRate carries the
// rate used at write time (two implied decimals) for audit and display.
//
// A movement with TransferID set always has exactly one sibling sharing
// the same TransferID, of the opposite type, with TransferPairID pointing
// at each other's id. Transfers never carry a category.
//
// A movement with Receivable=true and Received=false is an unresolved IOU;
// at most one income movement may reference it via ReceivableID.
type Movement struct {
	Base
	UserID     string  `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID  *string `gorm:"type:uuid;index" json:"account_id,omitempty"`
	CategoryID *string `gorm:"type:uuid" json:"category_id,omitempty"`

	Name         string  `gorm:"not null" json:"name"`
	OriginalName *string `json:"original_name,omitempty"`

	Date      time.Time `gorm:"not null;index" json:"date"`
	TimeOfDay *string   `gorm:"size:5" json:"time_of_day,omitempty"` // "15:04"

	Amount       int64        `gorm:"type:bigint;not null" json:"amount"`
	AmountUSD    *int64       `gorm:"type:bigint" json:"amount_usd,omitempty"`
	ExchangeRate *int64       `gorm:"type:bigint" json:"exchange_rate,omitempty"`
	Type         MovementType `gorm:"not null" json:"type"`

	NeedsReview bool `gorm:"default:false;index" json:"needs_review"`

	Receivable   bool    `gorm:"default:false" json:"receivable"`
	Received     bool    `gorm:"default:false" json:"received"`
	ReceivableID *string `gorm:"type:uuid;index" json:"receivable_id,omitempty"`

	TransferID     *string `gorm:"type:uuid;index" json:"transfer_id,omitempty"`
	TransferPairID *string `gorm:"type:uuid" json:"transfer_pair_id,omitempty"`

	Account  *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// IsTransferLeg reports whether the movement is one side of a transfer pair.
func (m *Movement) IsTransferLeg() bool {
	return m.TransferID != nil
}
