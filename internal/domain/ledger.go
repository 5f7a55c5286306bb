package domain

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// DefaultOperationTimeout bounds how long a single ledger operation may hold
// locks before it fails as transient.
const DefaultOperationTimeout = 5 * time.Second

// LedgerService is the ledger core. It orchestrates balance checks, balance
// mutation, and log append as one unit of work, and enforces the ledger
// invariants:
//
//   - a balance is never negative
//   - every balance mutation has exactly one immutable log entry
//   - a transfer debits and credits the same amount, applied atomically
//   - amounts are validated before any mutation; failures have no effect
//
// Per-account serialization comes from row locks taken inside a database
// transaction: the sufficient-funds check and the mutation happen under the
// same lock, so the applied operations on one account are linearizable.
type LedgerService struct {
	accounts  AccountRepository
	txLog     TransactionRepository
	transfers TransferRepository
	txManager TransactionManager
	// Optional publisher for post-commit operation events.
	publisher EventPublisher
	opTimeout time.Duration
}

// NewLedgerService creates a new LedgerService.
// Pass nil for publisher if no events should be emitted.
func NewLedgerService(
	accounts AccountRepository,
	txLog TransactionRepository,
	transfers TransferRepository,
	txManager TransactionManager,
	publisher EventPublisher,
) *LedgerService {
	return &LedgerService{
		accounts:  accounts,
		txLog:     txLog,
		transfers: transfers,
		txManager: txManager,
		publisher: publisher,
		opTimeout: DefaultOperationTimeout,
	}
}

// SetOperationTimeout overrides the per-operation timeout.
func (s *LedgerService) SetOperationTimeout(d time.Duration) {
	if d > 0 {
		s.opTimeout = d
	}
}

// Deposit credits amount to the account and appends one transaction record.
// Replaying a known idempotency key returns the recorded result without
// mutating anything.
func (s *LedgerService) Deposit(ctx context.Context, accountID uuid.UUID, amount Amount, idempotencyKey string) (*TransactionRecord, error) {
	return s.applyTransaction(ctx, accountID, KindDeposit, amount, idempotencyKey)
}

// Withdraw debits amount from the account and appends one transaction
// record. Fails with ErrInsufficientFunds, leaving balance and log
// untouched, when the balance doesn't cover the amount.
func (s *LedgerService) Withdraw(ctx context.Context, accountID uuid.UUID, amount Amount, idempotencyKey string) (*TransactionRecord, error) {
	return s.applyTransaction(ctx, accountID, KindWithdraw, amount, idempotencyKey)
}

// applyTransaction runs a single-account deposit or withdrawal as one atomic
// step: lock the row, check, mutate, append the record, commit.
func (s *LedgerService) applyTransaction(ctx context.Context, accountID uuid.UUID, kind TransactionKind, amount Amount, idempotencyKey string) (*TransactionRecord, error) {
	if err := validateOperation(amount, idempotencyKey); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	existing, err := s.txLog.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	var record *TransactionRecord
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		account, err := s.accounts.Lock(txCtx, accountID)
		if err != nil {
			return err
		}

		if !account.Balance.SameCurrency(amount) {
			return ErrCurrencyMismatch
		}

		switch kind {
		case KindDeposit:
			if err := account.Credit(amount); err != nil {
				return err
			}
		case KindWithdraw:
			if !account.HasSufficientFunds(amount) {
				return ErrInsufficientFunds
			}
			if err := account.Debit(amount); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown transaction kind: %s", kind)
		}

		if err := s.accounts.Update(txCtx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}

		record = NewTransactionRecord(accountID, kind, amount, account.Balance, idempotencyKey)
		if err := s.txLog.Append(txCtx, record); err != nil {
			return fmt.Errorf("failed to append transaction record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishTransaction(record)
	return record, nil
}

// Transfer moves amount from sender to recipient and appends one transfer
// record. Debit and credit are applied within one database transaction, so
// concurrent readers only ever observe the fully-applied or fully-unapplied
// state. Account rows are locked in ascending identifier order regardless of
// transfer direction to avoid deadlocks between opposite transfers.
func (s *LedgerService) Transfer(ctx context.Context, senderID, recipientID uuid.UUID, amount Amount, idempotencyKey string) (*TransferRecord, error) {
	if err := validateOperation(amount, idempotencyKey); err != nil {
		return nil, err
	}
	if senderID == recipientID {
		return nil, ErrSameAccount
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	existing, err := s.transfers.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	var record *TransferRecord
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var sender, recipient *Account
		var err error
		if senderID.String() < recipientID.String() {
			if sender, err = s.accounts.Lock(txCtx, senderID); err != nil {
				return fmt.Errorf("failed to lock sender account: %w", err)
			}
			if recipient, err = s.accounts.Lock(txCtx, recipientID); err != nil {
				return fmt.Errorf("failed to lock recipient account: %w", err)
			}
		} else {
			if recipient, err = s.accounts.Lock(txCtx, recipientID); err != nil {
				return fmt.Errorf("failed to lock recipient account: %w", err)
			}
			if sender, err = s.accounts.Lock(txCtx, senderID); err != nil {
				return fmt.Errorf("failed to lock sender account: %w", err)
			}
		}

		if !sender.Balance.SameCurrency(amount) || !recipient.Balance.SameCurrency(amount) {
			return ErrCurrencyMismatch
		}

		if !sender.HasSufficientFunds(amount) {
			return ErrInsufficientFunds
		}

		if err := sender.Debit(amount); err != nil {
			return fmt.Errorf("failed to debit sender account: %w", err)
		}
		if err := recipient.Credit(amount); err != nil {
			return fmt.Errorf("failed to credit recipient account: %w", err)
		}

		if err := s.accounts.Update(txCtx, sender); err != nil {
			return fmt.Errorf("failed to update sender account: %w", err)
		}
		if err := s.accounts.Update(txCtx, recipient); err != nil {
			return fmt.Errorf("failed to update recipient account: %w", err)
		}

		record = NewTransferRecord(senderID, recipientID, amount, sender.Balance, recipient.Balance, idempotencyKey)
		if err := s.transfers.Append(txCtx, record); err != nil {
			return fmt.Errorf("failed to append transfer record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishTransfer(record)
	return record, nil
}

// Balance retrieves the current balance of an account.
func (s *LedgerService) Balance(ctx context.Context, accountID uuid.UUID) (Amount, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return Amount{}, err
	}
	return account.Balance, nil
}

// History returns the account's transaction records, most-recent-first.
// from and to optionally bound the range.
func (s *LedgerService) History(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*TransactionRecord, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.txLog.ListByAccount(ctx, accountID, from, to)
}

// Transfers returns transfers touching the account, most-recent-first.
func (s *LedgerService) Transfers(ctx context.Context, accountID uuid.UUID) ([]*TransferRecord, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.transfers.ListByAccount(ctx, accountID)
}

// validateOperation rejects malformed amounts and keys before any mutation.
func validateOperation(amount Amount, idempotencyKey string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if err := ValidateCurrencyCode(amount.CurrencyCode); err != nil {
		return err
	}
	if idempotencyKey == "" {
		return fmt.Errorf("%w: idempotency key is required", ErrInvalidRequest)
	}
	return nil
}

// publishTransaction emits a post-commit event, best-effort. Transient
// broker failures must not make an already-committed operation appear to
// fail, so publishing happens asynchronously and is only logged on error.
func (s *LedgerService) publishTransaction(record *TransactionRecord) {
	if s.publisher == nil {
		return
	}
	go func(r *TransactionRecord) {
		if err := s.publisher.PublishTransaction(context.Background(), r); err != nil {
			log.Printf("warning: failed to publish %s event: %v", r.Kind, err)
		}
	}(record)
}

func (s *LedgerService) publishTransfer(record *TransferRecord) {
	if s.publisher == nil {
		return
	}
	go func(r *TransferRecord) {
		if err := s.publisher.PublishTransfer(context.Background(), r); err != nil {
			log.Printf("warning: failed to publish transfer event: %v", err)
		}
	}(record)
}
