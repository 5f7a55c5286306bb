package db

import (
	"context"
	"fmt"
)

// migrations holds the schema bootstrap statements, applied in order.
// Balances and amounts are stored as BIGINT minor units; the transaction and
// transfer tables are append-only (no code path issues UPDATE or DELETE).
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY REFERENCES users(id),
		balance_units BIGINT NOT NULL DEFAULT 0 CHECK (balance_units >= 0),
		currency_code VARCHAR(3) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		kind VARCHAR(10) NOT NULL CHECK (kind IN ('deposit', 'withdraw')),
		amount_units BIGINT NOT NULL CHECK (amount_units > 0),
		currency_code VARCHAR(3) NOT NULL,
		balance_after_units BIGINT NOT NULL,
		idempotency_key VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id, created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS transfers (
		id UUID PRIMARY KEY,
		sender_id UUID NOT NULL REFERENCES accounts(id),
		recipient_id UUID NOT NULL REFERENCES accounts(id),
		amount_units BIGINT NOT NULL CHECK (amount_units > 0),
		currency_code VARCHAR(3) NOT NULL,
		sender_balance_after_units BIGINT NOT NULL,
		recipient_balance_after_units BIGINT NOT NULL,
		idempotency_key VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_transfers_sender_id ON transfers(sender_id);
	CREATE INDEX IF NOT EXISTS idx_transfers_recipient_id ON transfers(recipient_id);`,
}

// Migrate applies the schema bootstrap. Safe to run repeatedly.
func Migrate(ctx context.Context, pool *Pool) error {
	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i+1, err)
		}
	}
	return nil
}
