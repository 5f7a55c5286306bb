package analytics

import "time"

// OperationType classifies mirrored ledger operations.
type OperationType string

const (
	OperationTypeDeposit  OperationType = "DEPOSIT"
	OperationTypeWithdraw OperationType = "WITHDRAW"
	OperationTypeTransfer OperationType = "TRANSFER"
)

// Operation is one mirrored ledger operation as seen by one account.
// A transfer produces two operations, one per affected account.
type Operation struct {
	ID            string
	AccountID     string
	OperationType OperationType
	Timestamp     time.Time
	AmountValue   string // Decimal string, e.g. "100.50"
	CurrencyCode  string
	SenderID      string // Only populated for TRANSFER operations
	RecipientID   string // Only populated for TRANSFER operations
}
