package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wallet-lock-ledger/internal/api_gateway/middleware"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := NewErrorResponse(code, message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// MapDomainError translates a wallet domain error into an HTTP status, error
// code and client-facing message. It is a pure function so the mapping can be
// tested without a running server.
func MapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, wallet.ErrUserNotFound):
		return http.StatusNotFound, "NOT_FOUND", "User not found"
	case errors.Is(err, wallet.ErrNegativeBalance):
		return http.StatusUnprocessableEntity, "NEGATIVE_BALANCE", "Your balance can't be negative"
	case errors.Is(err, wallet.AlreadyProcessedError{}):
		return http.StatusPreconditionFailed, "ALREADY_PROCESSED", "A different transaction was already processed with this idempotency key"
	case errors.Is(err, wallet.ErrLockTimeout):
		return http.StatusServiceUnavailable, "LOCK_TIMEOUT", "The wallet is busy, please retry"
	case errors.Is(err, wallet.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "The service is temporarily unavailable, please retry"
	default:
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred"
	}
}

// RespondDomainError maps a domain error and sends the corresponding response
func RespondDomainError(c *gin.Context, err error) {
	status, code, message := MapDomainError(err)
	RespondWithError(c, status, code, message)
}
