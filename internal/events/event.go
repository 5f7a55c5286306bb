// Package events publishes ledger operation events to RabbitMQ after the
// owning database transaction has committed.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/altabank/ledger-service/internal/domain"
)

// Event types carried in OperationEvent.EventType.
const (
	EventTypeDeposit  = "operation.deposit.completed"
	EventTypeWithdraw = "operation.withdraw.completed"
	EventTypeTransfer = "operation.transfer.completed"
)

// EventAmount is the wire form of a monetary amount.
type EventAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currencyCode"`
}

// OperationEvent is the payload published for every committed ledger
// operation and consumed by the analytics mirror.
type OperationEvent struct {
	EventID        string      `json:"eventId"`
	EventType      string      `json:"eventType"`
	EventTimestamp string      `json:"eventTimestamp"`
	OperationID    string      `json:"operationId"`
	AccountID      string      `json:"accountId,omitempty"`
	SenderID       string      `json:"senderId,omitempty"`
	RecipientID    string      `json:"recipientId,omitempty"`
	Amount         EventAmount `json:"amount"`
	IdempotencyKey string      `json:"idempotencyKey"`
	Status         string      `json:"status"`
	Timestamp      string      `json:"timestamp"`
}

// NewTransactionEvent builds the event for a committed deposit or
// withdrawal.
func NewTransactionEvent(record *domain.TransactionRecord) OperationEvent {
	eventType := EventTypeDeposit
	if record.Kind == domain.KindWithdraw {
		eventType = EventTypeWithdraw
	}
	return OperationEvent{
		EventID:        uuid.New().String(),
		EventType:      eventType,
		EventTimestamp: time.Now().UTC().Format(time.RFC3339),
		OperationID:    record.ID.String(),
		AccountID:      record.AccountID.String(),
		Amount: EventAmount{
			Value:        record.Amount.Value(),
			CurrencyCode: record.Amount.CurrencyCode,
		},
		IdempotencyKey: record.IdempotencyKey,
		Status:         "SUCCESS",
		Timestamp:      record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewTransferEvent builds the event for a committed transfer.
func NewTransferEvent(record *domain.TransferRecord) OperationEvent {
	return OperationEvent{
		EventID:        uuid.New().String(),
		EventType:      EventTypeTransfer,
		EventTimestamp: time.Now().UTC().Format(time.RFC3339),
		OperationID:    record.ID.String(),
		SenderID:       record.SenderID.String(),
		RecipientID:    record.RecipientID.String(),
		Amount: EventAmount{
			Value:        record.Amount.Value(),
			CurrencyCode: record.Amount.CurrencyCode,
		},
		IdempotencyKey: record.IdempotencyKey,
		Status:         "SUCCESS",
		Timestamp:      record.CreatedAt.UTC().Format(time.RFC3339),
	}
}
