package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MonthlyReport summarizes an account's deposits and withdrawals for one
// calendar month. Net may be negative.
type MonthlyReport struct {
	Month       int
	Year        int
	Deposits    Amount
	Withdrawals Amount
	Net         Amount
}

// ReportService derives reports from the transaction log. Pure reads; no
// side effects.
type ReportService struct {
	txLog        TransactionRepository
	currencyCode string
}

// NewReportService creates a new ReportService. currencyCode is used for
// zero totals when the period has no records.
func NewReportService(txLog TransactionRepository, currencyCode string) *ReportService {
	return &ReportService{txLog: txLog, currencyCode: currencyCode}
}

// MonthlyReport folds the account's transaction records for the given month
// into deposit and withdrawal totals. The range covers the first through the
// last day of the month, inclusive.
func (s *ReportService) MonthlyReport(ctx context.Context, accountID uuid.UUID, month, year int) (*MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidPeriod)
	}
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, year)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	records, err := s.txLog.ListByAccount(ctx, accountID, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	report := &MonthlyReport{
		Month:       month,
		Year:        year,
		Deposits:    NewAmount(0, s.currencyCode),
		Withdrawals: NewAmount(0, s.currencyCode),
	}

	for _, record := range records {
		switch record.Kind {
		case KindDeposit:
			report.Deposits.Units += record.Amount.Units
		case KindWithdraw:
			report.Withdrawals.Units += record.Amount.Units
		}
	}

	report.Net = NewAmount(report.Deposits.Units-report.Withdrawals.Units, s.currencyCode)
	return report, nil
}
