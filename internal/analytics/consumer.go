package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/altabank/ledger-service/internal/config"
	"github.com/altabank/ledger-service/internal/events"
)

// OperationWriter is the slice of the repository the consumer needs.
type OperationWriter interface {
	InsertOperation(ctx context.Context, op *Operation) error
}

// RabbitMQConsumer consumes operation events from RabbitMQ and writes them
// into the ClickHouse mirror.
type RabbitMQConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
	repo    OperationWriter
}

// NewRabbitMQConsumer connects to RabbitMQ, declares the exchange and queue,
// and binds them.
func NewRabbitMQConsumer(cfg config.RabbitMQConfig, repo OperationWriter) (*RabbitMQConsumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Printf("RabbitMQ consumer initialized: exchange=%s, queue=%s, routing_key=%s",
		cfg.Exchange, cfg.Queue, cfg.RoutingKey)

	return &RabbitMQConsumer{
		conn:    conn,
		channel: channel,
		config:  cfg,
		repo:    repo,
	}, nil
}

// Start consumes messages until the context is cancelled. Messages are acked
// after a successful write and nacked with requeue on failure.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.config.Queue, // queue
		"",             // consumer tag (auto-generated)
		false,          // auto-ack (we ack manually)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("RabbitMQ consumer started, waiting for messages on queue: %s", c.config.Queue)

	for {
		select {
		case <-ctx.Done():
			log.Println("context cancelled, stopping RabbitMQ consumer")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.handleMessage(ctx, msg); err != nil {
				log.Printf("error handling message: %v", err)
				msg.Nack(false, true)
			} else {
				msg.Ack(false)
			}
		}
	}
}

// handleMessage mirrors one operation event. A transfer is written twice,
// once per affected account.
func (c *RabbitMQConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) error {
	var event events.OperationEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if err := ValidateEvent(&event); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	timestamp, err := time.Parse(time.RFC3339, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to parse timestamp: %w", err)
	}

	for _, op := range OperationsFromEvent(&event, timestamp) {
		if err := c.repo.InsertOperation(ctx, op); err != nil {
			return fmt.Errorf("failed to insert operation: %w", err)
		}
	}

	log.Printf("processed operation event: eventId=%s, operationId=%s", event.EventID, event.OperationID)
	return nil
}

// OperationsFromEvent expands an event into its per-account operation rows.
func OperationsFromEvent(event *events.OperationEvent, timestamp time.Time) []*Operation {
	base := Operation{
		ID:           event.OperationID,
		Timestamp:    timestamp,
		AmountValue:  event.Amount.Value,
		CurrencyCode: event.Amount.CurrencyCode,
	}

	switch event.EventType {
	case events.EventTypeTransfer:
		sender := base
		sender.AccountID = event.SenderID
		sender.OperationType = OperationTypeTransfer
		sender.SenderID = event.SenderID
		sender.RecipientID = event.RecipientID

		recipient := base
		recipient.AccountID = event.RecipientID
		recipient.OperationType = OperationTypeTransfer
		recipient.SenderID = event.SenderID
		recipient.RecipientID = event.RecipientID

		return []*Operation{&sender, &recipient}

	case events.EventTypeWithdraw:
		op := base
		op.AccountID = event.AccountID
		op.OperationType = OperationTypeWithdraw
		return []*Operation{&op}

	default:
		op := base
		op.AccountID = event.AccountID
		op.OperationType = OperationTypeDeposit
		return []*Operation{&op}
	}
}

// ValidateEvent checks the structural fields the mirror depends on.
func ValidateEvent(event *events.OperationEvent) error {
	if event.OperationID == "" {
		return fmt.Errorf("operation ID is required")
	}
	if event.Amount.Value == "" {
		return fmt.Errorf("amount value is required")
	}
	if event.Amount.CurrencyCode == "" {
		return fmt.Errorf("currency code is required")
	}
	if event.Timestamp == "" {
		return fmt.Errorf("timestamp is required")
	}
	if event.Status != "SUCCESS" {
		return fmt.Errorf("only SUCCESS status events are processed, got: %s", event.Status)
	}

	switch event.EventType {
	case events.EventTypeTransfer:
		if event.SenderID == "" || event.RecipientID == "" {
			return fmt.Errorf("sender and recipient IDs are required for transfers")
		}
	case events.EventTypeDeposit, events.EventTypeWithdraw:
		if event.AccountID == "" {
			return fmt.Errorf("account ID is required")
		}
	default:
		return fmt.Errorf("unknown event type: %s", event.EventType)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *RabbitMQConsumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			log.Printf("error closing channel: %v", err)
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
