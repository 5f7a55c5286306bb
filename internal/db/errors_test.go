package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/altabank/ledger-service/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"domain error passes through", domain.ErrInsufficientFunds, domain.ErrInsufficientFunds},
		{"wrapped domain error passes through", fmt.Errorf("check: %w", domain.ErrAccountNotFound), domain.ErrAccountNotFound},
		{"already transient", domain.ErrTransientStore, domain.ErrTransientStore},
		{"deadline exceeded", context.DeadlineExceeded, domain.ErrTransientStore},
		{"canceled", context.Canceled, domain.ErrTransientStore},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, domain.ErrTransientStore},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domain.ErrTransientStore},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, domain.ErrTransientStore},
		{"constraint violation", &pgconn.PgError{Code: "23514"}, domain.ErrStorageFault},
		{"arbitrary error", errors.New("connection refused"), domain.ErrStorageFault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected unique violation to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Error("expected non-unique-violation code to be rejected")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Error("expected plain error to be rejected")
	}
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("expected wrapped unique violation to be detected")
	}
}
