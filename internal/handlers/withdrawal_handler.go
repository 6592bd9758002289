package handlers

import (
	"net/http"

	"fundrouter/internal/services"

	"github.com/gin-gonic/gin"
)

// WithdrawalHandler is the withdrawal settlement and history surface.
type WithdrawalHandler struct {
	settlement *services.SettlementService
	ledger     *services.LedgerService
}

func NewWithdrawalHandler(settlement *services.SettlementService, ledger *services.LedgerService) *WithdrawalHandler {
	return &WithdrawalHandler{settlement: settlement, ledger: ledger}
}

type withdrawalRequest struct {
	AssetKey string `json:"asset_key" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// SubmitWithdrawalHandler handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) SubmitWithdrawalHandler(c *gin.Context) {
	userAddress := c.GetString("user_address")

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "INVALID_REQUEST",
		})
		return
	}

	receipt, err := h.settlement.ProcessWithdrawal(c.Request.Context(), userAddress, req.AssetKey, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    receipt,
	})
}

// ListMyWithdrawalsHandler handles GET /api/v1/my/withdrawals.
func (h *WithdrawalHandler) ListMyWithdrawalsHandler(c *gin.Context) {
	userAddress := c.GetString("user_address")
	page, limit := pagination(c)

	receipts, total, err := h.ledger.ListWithdrawals(c.Request.Context(), userAddress, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    receipts,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
