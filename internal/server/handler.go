package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/altabank/ledger-service/internal/domain"
)

// Handler implements the HTTP surface. It is deliberately thin: request
// bodies are decoded into typed structures, amounts are parsed into minor
// units, and everything else is delegated to the domain services.
type Handler struct {
	ledger       LedgerService
	reports      ReportService
	users        UserService
	operations   OperationLister // nil when the analytics mirror is disabled
	currencyCode string
	sessionTTL   time.Duration
}

// NewHandler creates a new Handler. operations may be nil. sessionTTL is the
// lifetime of the session cookie and should match the token lifetime.
func NewHandler(ledger LedgerService, reports ReportService, users UserService, operations OperationLister, currencyCode string, sessionTTL time.Duration) *Handler {
	if sessionTTL <= 0 {
		sessionTTL = time.Hour
	}
	return &Handler{
		ledger:       ledger,
		reports:      reports,
		users:        users,
		operations:   operations,
		currencyCode: currencyCode,
		sessionTTL:   sessionTTL,
	}
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	user, err := h.users.Register(r.Context(), domain.RegisterRequest{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	})
}

// Login handles POST /api/auth/login. The token is returned in the body and
// set as an HttpOnly cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.sessionTTL / time.Second),
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "token", Value: "", HttpOnly: true, MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "session closed"})
}

// Check handles GET /api/auth/check. Reaching it at all means the token
// verified; it reports who the session belongs to.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "session is active",
		"id":      accountID.String(),
	})
}

// ChangePassword handles PUT /api/update/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	if err := h.users.ChangePassword(r.Context(), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Profile handles GET /api/user/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}

	user, err := h.users.Profile(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	})
}

// Balance handles GET /api/transactions/balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}

	balance, err := h.ledger.Balance(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: toAmountDTO(balance)})
}

// Deposit handles POST /api/transactions/deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyTransaction(w, r, h.ledger.Deposit)
}

// Withdraw handles POST /api/transactions/withdraw.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyTransaction(w, r, h.ledger.Withdraw)
}

type transactionFunc func(ctx context.Context, accountID uuid.UUID, amount domain.Amount, idempotencyKey string) (*domain.TransactionRecord, error)

func (h *Handler) applyTransaction(w http.ResponseWriter, r *http.Request, op transactionFunc) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	amount, err := domain.ParseAmount(req.Amount, h.currencyCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := op(r.Context(), accountID, amount, idempotencyKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(record))
}

// Transfer handles POST /api/transactions/transfer.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid recipient id")
		return
	}

	amount, err := domain.ParseAmount(req.Amount, h.currencyCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := h.ledger.Transfer(r.Context(), accountID, recipientID, amount, idempotencyKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferResponse(record))
}

// History handles GET /api/transactions/history with optional from/to query
// parameters (RFC 3339).
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}

	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid from parameter")
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid to parameter")
		return
	}

	records, err := h.ledger.History(r.Context(), accountID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]transactionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toTransactionResponse(record))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Transfers handles GET /api/transactions/transfers.
func (h *Handler) Transfers(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}

	records, err := h.ledger.Transfers(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]transferResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toTransferResponse(record))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Report handles GET /api/transactions/report?month=&year=.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "month and year are required")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "month and year are required")
		return
	}

	report, err := h.reports.MonthlyReport(r.Context(), accountID, month, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		Month:       report.Month,
		Year:        report.Year,
		Deposits:    toAmountDTO(report.Deposits),
		Withdrawals: toAmountDTO(report.Withdrawals),
		Net:         toAmountDTO(report.Net),
	})
}

// Operations handles GET /api/analytics/operations. Returns 503 when the
// analytics mirror is disabled.
func (h *Handler) Operations(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no token provided")
		return
	}
	if h.operations == nil {
		writeError(w, http.StatusServiceUnavailable, "DISABLED", "analytics mirror is not enabled")
		return
	}

	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > math.MaxInt32 {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid limit parameter")
			return
		}
		limit = int32(n)
	}
	afterID := r.URL.Query().Get("afterId")

	operations, err := h.operations.ListAccountOperations(r.Context(), accountID.String(), limit, afterID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]operationResponse, 0, len(operations))
	for _, op := range operations {
		responses = append(responses, toOperationResponse(op))
	}
	writeJSON(w, http.StatusOK, responses)
}

// idempotencyKey reads the Idempotency-Key header, generating a fresh key
// when the client didn't supply one.
func idempotencyKey(r *http.Request) string {
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		return key
	}
	return uuid.New().String()
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
