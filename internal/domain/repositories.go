package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository defines the interface for account data access.
type AccountRepository interface {
	// GetByID retrieves an account by its unique identifier.
	// Returns ErrAccountNotFound if the account doesn't exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// Create persists a new account.
	Create(ctx context.Context, account *Account) error

	// Update persists changes to an existing account.
	// Used to write the balance after a deposit, withdrawal, or transfer.
	Update(ctx context.Context, account *Account) error

	// Lock acquires a database lock on the account for the duration of the
	// enclosing transaction. Must be called within a transaction context.
	Lock(ctx context.Context, id uuid.UUID) (*Account, error)
}

// TransactionRepository defines the interface for the append-only
// transaction log. There are no update or delete operations.
type TransactionRepository interface {
	// Append persists a transaction record exactly once.
	Append(ctx context.Context, record *TransactionRecord) error

	// GetByIdempotencyKey retrieves a record by idempotency key.
	// Returns nil if no record exists for the key.
	GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*TransactionRecord, error)

	// ListByAccount returns records for an account, most-recent-first.
	// from (inclusive) and to (exclusive) optionally bound the creation
	// time; the query is restartable and may be re-run.
	ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*TransactionRecord, error)
}

// TransferRepository defines the interface for the append-only transfer log.
type TransferRepository interface {
	// Append persists a transfer record exactly once.
	Append(ctx context.Context, record *TransferRecord) error

	// GetByIdempotencyKey retrieves a record by idempotency key.
	// Returns nil if no record exists for the key.
	GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*TransferRecord, error)

	// ListByAccount returns transfers where the account is sender or
	// recipient, most-recent-first.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*TransferRecord, error)
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create persists a new user. Returns ErrUserExists if the username or
	// email is already taken.
	Create(ctx context.Context, user *User) error

	// GetByEmail retrieves a user by email. Returns nil if no user exists.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by identifier. Returns nil if no user exists.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// UpdatePassword replaces the user's password hash.
	// Returns ErrAccountNotFound if the user doesn't exist.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// TransactionManager defines the interface for managing database
// transactions. The service layer uses it to make a balance mutation and
// its log append one atomic unit of work.
type TransactionManager interface {
	// WithTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back; otherwise it
	// is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes domain events to external systems (e.g. RabbitMQ)
// after an operation has committed.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, record *TransactionRecord) error
	PublishTransfer(ctx context.Context, record *TransferRecord) error
}
