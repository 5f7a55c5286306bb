package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered customer.
type User struct {
	ID           uuid.UUID // Unique identifier, shared with the user's account
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Account represents a bank account holding a balance.
// Balances are mutated only through the LedgerService operations.
type Account struct {
	ID        uuid.UUID // Unique identifier of the account
	Balance   Amount    // Current account balance, never negative
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionKind distinguishes single-account balance changes.
type TransactionKind string

const (
	KindDeposit  TransactionKind = "deposit"
	KindWithdraw TransactionKind = "withdraw"
)

// TransactionRecord is an immutable log entry for a single-account balance
// change. Records are appended exactly once per successful deposit or
// withdrawal and are never updated or deleted.
type TransactionRecord struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Kind           TransactionKind
	Amount         Amount
	BalanceAfter   Amount // Account balance immediately after the mutation
	IdempotencyKey string
	CreatedAt      time.Time
}

// TransferRecord is an immutable log entry for a two-account balance change.
// A record is appended only after both balances were updated, within the
// same unit of work.
type TransferRecord struct {
	ID                    uuid.UUID
	SenderID              uuid.UUID
	RecipientID           uuid.UUID
	Amount                Amount
	SenderBalanceAfter    Amount
	RecipientBalanceAfter Amount
	IdempotencyKey        string
	CreatedAt             time.Time
}

// NewAccount creates an account with a zero balance in the given currency.
func NewAccount(id uuid.UUID, currencyCode string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:        id,
		Balance:   NewAmount(0, currencyCode),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Credit adds the given amount to the account balance.
func (a *Account) Credit(amount Amount) error {
	newBalance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	a.Balance = newBalance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Debit subtracts the given amount from the account balance.
// The caller must have verified sufficient funds under a lock.
func (a *Account) Debit(amount Amount) error {
	newBalance, err := a.Balance.Sub(amount)
	if err != nil {
		return err
	}
	if newBalance.Units < 0 {
		return ErrInsufficientFunds
	}
	a.Balance = newBalance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// HasSufficientFunds checks if the balance covers the given amount.
func (a *Account) HasSufficientFunds(amount Amount) bool {
	cmp, err := a.Balance.Cmp(amount)
	if err != nil {
		return false
	}
	return cmp >= 0
}

// NewTransactionRecord creates a transaction log entry for a completed
// deposit or withdrawal.
func NewTransactionRecord(accountID uuid.UUID, kind TransactionKind, amount, balanceAfter Amount, idempotencyKey string) *TransactionRecord {
	return &TransactionRecord{
		ID:             uuid.New(),
		AccountID:      accountID,
		Kind:           kind,
		Amount:         amount,
		BalanceAfter:   balanceAfter,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewTransferRecord creates a transfer log entry for a completed transfer.
func NewTransferRecord(senderID, recipientID uuid.UUID, amount, senderAfter, recipientAfter Amount, idempotencyKey string) *TransferRecord {
	return &TransferRecord{
		ID:                    uuid.New(),
		SenderID:              senderID,
		RecipientID:           recipientID,
		Amount:                amount,
		SenderBalanceAfter:    senderAfter,
		RecipientBalanceAfter: recipientAfter,
		IdempotencyKey:        idempotencyKey,
		CreatedAt:             time.Now().UTC(),
	}
}
