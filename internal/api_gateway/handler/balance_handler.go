package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wallet-lock-ledger/internal/api_gateway/service"
)

// BalanceHandler handles HTTP requests for balance retrieval
type BalanceHandler struct {
	balanceService service.BalanceService
	logger         *slog.Logger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(logger *slog.Logger, balanceService service.BalanceService) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
		logger:         logger,
	}
}

// GetByUserID returns the user's current balance. First access provisions the
// wallet with the default opening credit, so the read may perform a commit.
func (h *BalanceHandler) GetByUserID(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	balance, err := h.balanceService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get balance", "user_id", userID, "error", err)
		RespondDomainError(c, err)
		return
	}

	RespondOK(c, BalanceResponse{
		UserID:  userID,
		Balance: balance.String(),
	})
}
