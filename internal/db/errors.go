package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/altabank/ledger-service/internal/domain"
)

// PostgreSQL error codes that make the whole operation safe to retry.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// classify maps a persistence error onto the domain error taxonomy:
// contention and timeouts become domain.ErrTransientStore (the caller may
// retry the whole operation), everything else becomes domain.ErrStorageFault.
// Domain errors pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	// Already a domain error (not found, insufficient funds, ...).
	if errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrCurrencyMismatch) ||
		errors.Is(err, domain.ErrSameAccount) ||
		errors.Is(err, domain.ErrUserExists) ||
		errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrTransientStore) ||
		errors.Is(err, domain.ErrStorageFault) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrStorageFault, err)
}

// isUniqueViolation checks if the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
