package handler

// CreateTransactionRequest represents a request to apply a balance delta
type CreateTransactionRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	Type           string `json:"type" binding:"required,oneof=CREDIT DEBIT"`
	Amount         string `json:"amount" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// TransactionResponse represents a committed transaction in API responses
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	NewBalance    string `json:"new_balance"`
}

// BalanceResponse represents a user's balance in API responses
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}
