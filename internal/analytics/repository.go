package analytics

import (
	"context"
	"fmt"
	"time"
)

// OperationRepository handles operations persistence in ClickHouse.
type OperationRepository struct {
	db *ClickHouseClient
}

// NewOperationRepository creates a new operation repository.
func NewOperationRepository(db *ClickHouseClient) *OperationRepository {
	return &OperationRepository{db: db}
}

// InsertOperation inserts a mirrored operation.
func (r *OperationRepository) InsertOperation(ctx context.Context, op *Operation) error {
	query := `
		INSERT INTO operations (
			id, account_id, operation_type, timestamp,
			amount_value, amount_currency, sender_id, recipient_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.db.Conn().Exec(ctx, query,
		op.ID,
		op.AccountID,
		string(op.OperationType),
		op.Timestamp,
		op.AmountValue,
		op.CurrencyCode,
		op.SenderID,
		op.RecipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation %s: %w", op.ID, err)
	}
	return nil
}

// ListAccountOperations retrieves operations for an account ordered
// most-recent-first, with optional keyset pagination.
func (r *OperationRepository) ListAccountOperations(ctx context.Context, accountID string, limit int32, afterID string) ([]*Operation, error) {
	query := `
		SELECT id, account_id, operation_type, timestamp,
		       amount_value, amount_currency, sender_id, recipient_id
		FROM operations
		WHERE account_id = ?
	`
	args := []any{accountID}

	if afterID != "" {
		query += " AND id > ?"
		args = append(args, afterID)
	}

	query += " ORDER BY timestamp DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var operations []*Operation
	for rows.Next() {
		var op Operation
		var operationType string
		var timestamp time.Time

		err := rows.Scan(
			&op.ID,
			&op.AccountID,
			&operationType,
			&timestamp,
			&op.AmountValue,
			&op.CurrencyCode,
			&op.SenderID,
			&op.RecipientID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}

		op.OperationType = OperationType(operationType)
		op.Timestamp = timestamp
		operations = append(operations, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operation rows: %w", err)
	}
	return operations, nil
}
