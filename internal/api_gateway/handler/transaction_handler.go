package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/api_gateway/middleware"
	"github.com/wallet-lock-ledger/internal/api_gateway/service"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
)

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create applies a credit or debit to the user's wallet, at most once per
// idempotency key. The commit is synchronous; a 201 means the delta is durable.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.logger.Error("Invalid amount", "amount", req.Amount, "error", err)
		RespondBadRequest(c, "Invalid amount: must be a decimal number")
		return
	}
	if !amount.IsPositive() {
		RespondBadRequest(c, "Invalid amount: must be greater than zero")
		return
	}

	// The bootstrap namespace is reserved for internally generated opening
	// credits and must never be reachable from the outside.
	if ledger.IsBootstrapKey(req.IdempotencyKey) {
		RespondBadRequest(c, "Invalid idempotency key: reserved prefix")
		return
	}

	var kind ledger.Kind
	switch req.Type {
	case "CREDIT":
		kind = ledger.KindCredit
	case "DEBIT":
		kind = ledger.KindDebit
	default:
		RespondBadRequest(c, "Invalid transaction type")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	ledgerID, newBalance, err := h.transactionService.CreateTransaction(
		c.Request.Context(),
		req.UserID,
		amount,
		kind,
		req.IdempotencyKey,
		correlationID,
	)
	if err != nil {
		h.logger.Error("Failed to create transaction",
			"user_id", req.UserID,
			"idempotency_key", req.IdempotencyKey,
			"error", err,
		)
		RespondDomainError(c, err)
		return
	}

	RespondCreated(c, TransactionResponse{
		TransactionID: ledgerID.String(),
		UserID:        req.UserID,
		Type:          string(kind),
		Amount:        amount.String(),
		NewBalance:    newBalance.String(),
	})
}
