package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/altabank/ledger-service/internal/analytics"
	"github.com/altabank/ledger-service/internal/domain"
)

// LedgerService is the slice of the ledger core the HTTP layer calls.
type LedgerService interface {
	Deposit(ctx context.Context, accountID uuid.UUID, amount domain.Amount, idempotencyKey string) (*domain.TransactionRecord, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount domain.Amount, idempotencyKey string) (*domain.TransactionRecord, error)
	Transfer(ctx context.Context, senderID, recipientID uuid.UUID, amount domain.Amount, idempotencyKey string) (*domain.TransferRecord, error)
	Balance(ctx context.Context, accountID uuid.UUID) (domain.Amount, error)
	History(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*domain.TransactionRecord, error)
	Transfers(ctx context.Context, accountID uuid.UUID) ([]*domain.TransferRecord, error)
}

// ReportService derives monthly reports.
type ReportService interface {
	MonthlyReport(ctx context.Context, accountID uuid.UUID, month, year int) (*domain.MonthlyReport, error)
}

// UserService handles registration, login, and account self-service.
type UserService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context, accountID uuid.UUID) (*domain.User, error)
	ChangePassword(ctx context.Context, accountID uuid.UUID, currentPassword, newPassword string) error
}

// OperationLister serves mirrored operation history. Optional; nil disables
// the analytics routes.
type OperationLister interface {
	ListAccountOperations(ctx context.Context, accountID string, limit int32, afterID string) ([]*analytics.Operation, error)
}

// TokenVerifier verifies bearer tokens and yields the authenticated account
// identifier.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}
