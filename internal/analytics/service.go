package analytics

import (
	"context"
	"fmt"
)

// OperationLister is the read side of the operation mirror.
type OperationLister interface {
	ListAccountOperations(ctx context.Context, accountID string, limit int32, afterID string) ([]*Operation, error)
}

// Service serves operation history from the mirror.
type Service struct {
	repo OperationLister
}

// NewService creates a new analytics Service.
func NewService(repo OperationLister) *Service {
	return &Service{repo: repo}
}

// ListAccountOperations returns operation history for an account with
// keyset pagination.
func (s *Service) ListAccountOperations(ctx context.Context, accountID string, limit int32, afterID string) ([]*Operation, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative")
	}

	operations, err := s.repo.ListAccountOperations(ctx, accountID, limit, afterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return operations, nil
}
