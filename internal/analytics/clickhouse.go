// Package analytics maintains a ClickHouse mirror of ledger operations, fed
// from RabbitMQ events, and serves paginated operation history from it. The
// PostgreSQL ledger stays the source of truth; this mirror is derived state.
package analytics

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/altabank/ledger-service/internal/config"
)

// ClickHouseClient wraps the ClickHouse driver connection.
type ClickHouseClient struct {
	conn driver.Conn
}

// NewClickHouseClient creates a ClickHouse client with the given
// configuration and verifies the connection.
func NewClickHouseClient(cfg config.ClickHouseConfig) (*ClickHouseClient, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Host},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseClient{conn: conn}, nil
}

// Conn returns the underlying ClickHouse connection.
func (c *ClickHouseClient) Conn() driver.Conn {
	return c.conn
}

// Migrate creates the operations table if it doesn't exist.
func (c *ClickHouseClient) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS operations (
			id String,
			account_id String,
			operation_type String,
			timestamp DateTime64(3),
			amount_value String,
			amount_currency String,
			sender_id String,
			recipient_id String
		) ENGINE = MergeTree()
		ORDER BY (account_id, timestamp)
	`
	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create operations table: %w", err)
	}
	return nil
}

// Close closes the ClickHouse connection.
func (c *ClickHouseClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
