package handlers

import (
	"net/http"

	"fundrouter/internal/services"

	"github.com/gin-gonic/gin"
)

// BalanceHandler exposes the caller's ledger balances.
type BalanceHandler struct {
	ledger *services.LedgerService
}

func NewBalanceHandler(ledger *services.LedgerService) *BalanceHandler {
	return &BalanceHandler{ledger: ledger}
}

// GetBalanceHandler handles GET /api/v1/balances/:asset.
func (h *BalanceHandler) GetBalanceHandler(c *gin.Context) {
	userAddress := c.GetString("user_address")
	assetKey := c.Param("asset")

	balance, err := h.ledger.GetDepositBalance(c.Request.Context(), userAddress, assetKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user_address": userAddress,
			"asset_key":    assetKey,
			"amount":       balance.String(),
		},
	})
}
