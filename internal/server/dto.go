package server

import (
	"time"

	"github.com/altabank/ledger-service/internal/analytics"
	"github.com/altabank/ledger-service/internal/domain"
)

// amountDTO is the wire form of a monetary value: a decimal string plus an
// ISO 4217 currency code.
type amountDTO struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currencyCode"`
}

type registerRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type transferRequest struct {
	RecipientID string `json:"recipientId"`
	Amount      string `json:"amount"`
}

type balanceResponse struct {
	Balance amountDTO `json:"balance"`
}

type transactionResponse struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Amount       amountDTO `json:"amount"`
	BalanceAfter amountDTO `json:"balanceAfter"`
	CreatedAt    string    `json:"createdAt"`
}

type transferResponse struct {
	OperationID      string    `json:"operationId"`
	SenderID         string    `json:"senderId"`
	RecipientID      string    `json:"recipientId"`
	Amount           amountDTO `json:"amount"`
	SenderBalance    amountDTO `json:"senderBalance"`
	RecipientBalance amountDTO `json:"recipientBalance"`
	CreatedAt        string    `json:"createdAt"`
}

type reportResponse struct {
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Deposits    amountDTO `json:"deposits"`
	Withdrawals amountDTO `json:"withdrawals"`
	Net         amountDTO `json:"net"`
}

type operationResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Timestamp   string    `json:"timestamp"`
	Amount      amountDTO `json:"amount"`
	SenderID    string    `json:"senderId,omitempty"`
	RecipientID string    `json:"recipientId,omitempty"`
}

func toAmountDTO(a domain.Amount) amountDTO {
	return amountDTO{Value: a.Value(), CurrencyCode: a.CurrencyCode}
}

func toTransactionResponse(r *domain.TransactionRecord) transactionResponse {
	return transactionResponse{
		ID:           r.ID.String(),
		Kind:         string(r.Kind),
		Amount:       toAmountDTO(r.Amount),
		BalanceAfter: toAmountDTO(r.BalanceAfter),
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransferResponse(r *domain.TransferRecord) transferResponse {
	return transferResponse{
		OperationID:      r.ID.String(),
		SenderID:         r.SenderID.String(),
		RecipientID:      r.RecipientID.String(),
		Amount:           toAmountDTO(r.Amount),
		SenderBalance:    toAmountDTO(r.SenderBalanceAfter),
		RecipientBalance: toAmountDTO(r.RecipientBalanceAfter),
		CreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toOperationResponse(op *analytics.Operation) operationResponse {
	return operationResponse{
		ID:        op.ID,
		Type:      string(op.OperationType),
		Timestamp: op.Timestamp.UTC().Format(time.RFC3339),
		Amount: amountDTO{
			Value:        op.AmountValue,
			CurrencyCode: op.CurrencyCode,
		},
		SenderID:    op.SenderID,
		RecipientID: op.RecipientID,
	}
}
