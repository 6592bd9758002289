package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fundrouter/internal/breaker"
	"fundrouter/internal/gateway"
	"fundrouter/internal/services"

	"github.com/gin-gonic/gin"
)

// errorStatus maps operation errors to HTTP status codes and stable error
// codes for API clients.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, services.ErrInvalidAddress):
		return http.StatusBadRequest, "INVALID_ADDRESS"
	case errors.Is(err, services.ErrNoDeposit):
		return http.StatusNotFound, "NO_DEPOSIT"
	case errors.Is(err, services.ErrNoFees):
		return http.StatusNotFound, "NO_FEES"
	case errors.Is(err, services.ErrOperationPaused):
		return http.StatusServiceUnavailable, "OPERATION_PAUSED"
	case errors.Is(err, services.ErrOperationNotPaused):
		return http.StatusConflict, "OPERATION_NOT_PAUSED"
	case errors.Is(err, services.ErrReentrant):
		return http.StatusConflict, "OPERATION_IN_FLIGHT"
	case errors.Is(err, breaker.ErrAlreadyPaused):
		return http.StatusConflict, "ALREADY_PAUSED"
	case errors.Is(err, breaker.ErrNotPaused):
		return http.StatusConflict, "NOT_PAUSED"
	case errors.Is(err, gateway.ErrTransferFailed):
		return http.StatusBadGateway, "TRANSFER_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

// pagination pulls page/limit query parameters with sane bounds.
func pagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = 20
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}
