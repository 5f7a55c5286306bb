package domain

import "errors"

var (
	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds is returned when a withdrawal or transfer exceeds
	// the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when an amount is non-numeric, not
	// positive, or otherwise malformed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSameAccount is returned when sender and recipient are the same.
	ErrSameAccount = errors.New("sender and recipient must be different accounts")

	// ErrCurrencyMismatch is returned when account and operation currencies
	// don't match.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidPeriod is returned when a report month/year is outside the
	// normal calendar range.
	ErrInvalidPeriod = errors.New("invalid report period")

	// ErrTransientStore is returned on lock or transaction contention and
	// backing-store faults that are safe to retry as a whole operation.
	ErrTransientStore = errors.New("transient store failure")

	// ErrStorageFault is returned on non-retryable persistence failures.
	// The failed operation is guaranteed not to have partially applied.
	ErrStorageFault = errors.New("storage fault")

	// ErrUserExists is returned when registering with a username or email
	// that is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned on login with an unknown email or
	// a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRequest is returned when a registration field fails
	// validation.
	ErrInvalidRequest = errors.New("invalid request")
)
