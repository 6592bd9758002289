package handlers

import (
	"net/http"

	"fundrouter/internal/services"
	"fundrouter/internal/types"

	"github.com/gin-gonic/gin"
)

// OrderHandler is the order submission and history surface.
type OrderHandler struct {
	orders *services.OrderService
	ledger *services.LedgerService
}

func NewOrderHandler(orders *services.OrderService, ledger *services.LedgerService) *OrderHandler {
	return &OrderHandler{orders: orders, ledger: ledger}
}

type submitOrderRequest struct {
	Order types.Order  `json:"order" binding:"required"`
	Route *types.Route `json:"route"`
}

// SubmitOrderHandler handles POST /api/v1/orders.
func (h *OrderHandler) SubmitOrderHandler(c *gin.Context) {
	userAddress := c.GetString("user_address")

	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "INVALID_REQUEST",
		})
		return
	}

	receipt, err := h.orders.ExecuteOrder(c.Request.Context(), userAddress, &req.Order, req.Route)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    receipt,
	})
}

// ListMyOrdersHandler handles GET /api/v1/my/orders.
func (h *OrderHandler) ListMyOrdersHandler(c *gin.Context) {
	userAddress := c.GetString("user_address")
	page, limit := pagination(c)

	receipts, total, err := h.ledger.ListOrders(c.Request.Context(), userAddress, page, limit)
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
