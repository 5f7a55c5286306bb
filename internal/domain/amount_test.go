package domain_test

import (
	"errors"
	"testing"

	"github.com/altabank/ledger-service/internal/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantUnits int64
		wantErr   bool
	}{
		{name: "whole number", value: "100", wantUnits: 10000},
		{name: "two decimal places", value: "100.50", wantUnits: 10050},
		{name: "one decimal place", value: "0.5", wantUnits: 50},
		{name: "smallest unit", value: "0.01", wantUnits: 1},
		{name: "empty", value: "", wantErr: true},
		{name: "zero", value: "0", wantErr: true},
		{name: "zero with decimals", value: "0.00", wantErr: true},
		{name: "negative", value: "-5", wantErr: true},
		{name: "non-numeric", value: "abc", wantErr: true},
		{name: "too many decimal places", value: "1.005", wantErr: true},
		{name: "infinity", value: "Inf", wantErr: true},
		{name: "not a number", value: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := domain.ParseAmount(tt.value, "USD")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got none", tt.value)
				}
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Errorf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if amount.Units != tt.wantUnits {
				t.Errorf("expected %d units, got %d", tt.wantUnits, amount.Units)
			}
			if amount.CurrencyCode != "USD" {
				t.Errorf("expected currency USD, got %s", amount.CurrencyCode)
			}
		})
	}
}

func TestParseAmount_InvalidCurrency(t *testing.T) {
	for _, code := range []string{"", "US", "usd", "USDX", "U$D"} {
		if _, err := domain.ParseAmount("100", code); err == nil {
			t.Errorf("expected error for currency code %q", code)
		}
	}
}

func TestAmount_Value(t *testing.T) {
	tests := []struct {
		units int64
		want  string
	}{
		{10050, "100.50"},
		{10000, "100.00"},
		{1, "0.01"},
		{0, "0.00"},
		{-3000, "-30.00"},
	}

	for _, tt := range tests {
		got := domain.NewAmount(tt.units, "USD").Value()
		if got != tt.want {
			t.Errorf("NewAmount(%d).Value() = %s, want %s", tt.units, got, tt.want)
		}
	}
}

func TestAmount_Arithmetic(t *testing.T) {
	a := domain.NewAmount(10000, "USD")
	b := domain.NewAmount(2500, "USD")

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Units != 12500 {
		t.Errorf("expected 12500, got %d", sum.Units)
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff.Units != 7500 {
		t.Errorf("expected 7500, got %d", diff.Units)
	}

	cmp, err := a.Cmp(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp <= 0 {
		t.Errorf("expected positive comparison, got %d", cmp)
	}
}

func TestAmount_CurrencyMismatch(t *testing.T) {
	a := domain.NewAmount(10000, "USD")
	b := domain.NewAmount(2500, "EUR")

	if _, err := a.Add(b); !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Errorf("Add: expected ErrCurrencyMismatch, got %v", err)
	}
	if _, err := a.Sub(b); !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Errorf("Sub: expected ErrCurrencyMismatch, got %v", err)
	}
	if _, err := a.Cmp(b); !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Errorf("Cmp: expected ErrCurrencyMismatch, got %v", err)
	}
}
