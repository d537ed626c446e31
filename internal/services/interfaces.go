package services

import (
	"context"
	"time"

	"platita/internal/models"
	"platita/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name, bankName, color string, currency models.Currency, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeactivateAccount(userID, accountID string) error
}

// AccountUpdateFields holds optional account metadata updates. Currency is
// deliberately absent: it is immutable once movements reference the account.
type AccountUpdateFields struct {
	Name     *string
	BankName *string
	Color    *string
	IsActive *bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name, icon, color string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// RateServicer provides cached exchange rates with two implied decimals.
type RateServicer interface {
	GetRate(ctx context.Context, from, to models.Currency) (int64, error)
}

// MovementInput holds the fields accepted when creating a movement.
// Currency is the currency the amount was entered in; the stored row is
// normalized against the owning account's currency.
type MovementInput struct {
	AccountID   *string
	CategoryID  *string
	Name        string
	Type        models.MovementType
	Amount      int64
	Currency    models.Currency
	Date        time.Time
	TimeOfDay   *string
	NeedsReview bool
}

// MovementUpdateFields holds optional movement updates. Linkage columns
// (transfer_id, transfer_pair_id, receivable_id) are deliberately absent:
// they are only mutated by the transfer, receivable, and split operations.
type MovementUpdateFields struct {
	AccountID  *string
	CategoryID **string // nil = unchanged, *nil = clear, **v = set
	Name       *string
	Amount     *int64
	Currency   *models.Currency
	Date       *time.Time
	TimeOfDay  *string
}

// MovementFilter holds optional filter parameters for listing movements.
type MovementFilter struct {
	AccountID   *string
	Type        *models.MovementType
	NeedsReview *bool
	Receivable  *bool
	Received    *bool
	FromDate    *time.Time
	ToDate      *time.Time
}

// MovementServicer defines the contract for the movement store.
type MovementServicer interface {
	CreateMovement(ctx context.Context, userID string, input MovementInput) (*models.Movement, error)
	GetMovementByID(userID, movementID string) (*models.Movement, error)
	UpdateMovement(ctx context.Context, userID, movementID string, fields MovementUpdateFields) (*models.Movement, error)
	DeleteMovement(userID, movementID string) error
	ListMovements(userID string, page pagination.PageRequest, filter MovementFilter) (*pagination.PageResponse[models.Movement], error)
	ConfirmReview(userID, movementID string, name *string) (*models.Movement, error)
}

// TransferInput holds the fields accepted when creating a transfer.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Currency      models.Currency
	Note          string
	Date          time.Time
}

// TransferUpdateFields holds optional transfer edits. Accounts and
// direction never change; only amount, date, and note may.
type TransferUpdateFields struct {
	Amount   *int64
	Currency *models.Currency
	Date     *time.Time
	Note     *string
}

// TransferServicer defines the contract for transfer pairing.
type TransferServicer interface {
	CreateTransfer(ctx context.Context, userID string, input TransferInput) (*models.Movement, *models.Movement, error)
	ConvertToTransfer(ctx context.Context, userID, movementID, toAccountID string) (*models.Movement, *models.Movement, error)
	GetTransferLegs(userID, transferID string) (*models.Movement, *models.Movement, error)
	UpdateTransfer(ctx context.Context, userID, transferID string, fields TransferUpdateFields) error
	DeleteTransfer(userID, transferID string) error
}

// ReceivableServicer defines the contract for receivable/payment linking.
type ReceivableServicer interface {
	MarkReceivable(userID, movementID string, note *string) (*models.Movement, error)
	UnmarkReceivable(userID, movementID string) (*models.Movement, error)
	MarkAsReceived(userID, movementID string, accountID *string) (*models.Movement, error)
	MarkAsReceivedWithExisting(userID, receivableID, incomeID string) error
}

// SplitPart is one slice of a split movement.
type SplitPart struct {
	Name   string
	Amount int64
}

// SplitServicer defines the contract for the split operation.
type SplitServicer interface {
	Split(userID, movementID string, parts []SplitPart) ([]models.Movement, error)
}

// AccountBalance is the computed balance of one account in its own currency.
type AccountBalance struct {
	AccountID string          `json:"account_id"`
	Name      string          `json:"name"`
	Currency  models.Currency `json:"currency"`
	Balance   int64           `json:"balance"`
}

// TotalBalance aggregates all account balances into CLP.
type TotalBalance struct {
	Accounts []AccountBalance `json:"accounts"`
	TotalCLP int64            `json:"total_clp"`
}

// DailyTotal is the income/expense aggregate for one calendar day.
type DailyTotal struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

// BalanceServicer defines the contract for read-only balance aggregation.
type BalanceServicer interface {
	AccountBalance(userID, accountID string) (*AccountBalance, error)
	TotalBalance(ctx context.Context, userID string) (*TotalBalance, error)
	DailyTotals(userID string, from, to time.Time) ([]DailyTotal, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
