package handlers

import (
	"net/http"

	"fundrouter/internal/breaker"
	"fundrouter/internal/config"
	"fundrouter/internal/repository"
	"fundrouter/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler is the owner-only operational surface: circuit breaker,
// emergency recovery, fee sweeps and execution-service rotation.
type AdminHandler struct {
	treasury *services.TreasuryService
	ledger   *services.LedgerService
	breaker  *breaker.Breaker
	configs  repository.ConfigRepository
}

func NewAdminHandler(treasury *services.TreasuryService, ledger *services.LedgerService, brk *breaker.Breaker, configs repository.ConfigRepository) *AdminHandler {
	return &AdminHandler{treasury: treasury, ledger: ledger, breaker: brk, configs: configs}
}

// ActivateEmergencyHandler handles POST /api/v1/admin/emergency/activate.
func (h *AdminHandler) ActivateEmergencyHandler(c *gin.Context) {
	admin := c.GetString("admin_username")
	if err := h.treasury.ActivateEmergencyMode(c.Request.Context(), admin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "paused": true})
}

// DeactivateEmergencyHandler handles POST /api/v1/admin/emergency/deactivate.
func (h *AdminHandler) DeactivateEmergencyHandler(c *gin.Context) {
	admin := c.GetString("admin_username")
	if err := h.treasury.DeactivateEmergencyMode(c.Request.Context(), admin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "paused": false})
}

// EmergencyWithdrawHandler handles POST /api/v1/admin/emergency/withdraw/:asset.
func (h *AdminHandler) EmergencyWithdrawHandler(c *gin.Context) {
	admin := c.GetString("admin_username")
	assetKey := c.Param("asset")

	amount, txHash, err := h.treasury.EmergencyWithdraw(c.Request.Context(), assetKey, admin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"asset_key": assetKey,
			"amount":    amount,
			"tx_hash":   txHash,
		},
	})
}

// WithdrawFeesHandler handles POST /api/v1/admin/fees/withdraw/:asset.
func (h *AdminHandler) WithdrawFeesHandler(c *gin.Context) {
	admin := c.GetString("admin_username")
	assetKey := c.Param("asset")

	amount, txHash, err := h.treasury.WithdrawFees(c.Request.Context(), assetKey, admin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"asset_key": assetKey,
			"amount":    amount,
			"tx_hash":   txHash,
		},
	})
}

// GetFeesHandler handles GET /api/v1/admin/fees/:asset.
func (h *AdminHandler) GetFeesHandler(c *gin.Context) {
	assetKey := c.Param("asset")

	fees, err := h.ledger.GetFeeBalance(c.Request.Context(), assetKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"asset_key": assetKey,
			"amount":    fees.String(),
		},
	})
}

type updateExecutionServiceRequest struct {
	Address string `json:"address" binding:"required"`
}

// UpdateExecutionServiceHandler handles PUT /api/v1/admin/execution-service.
func (h *AdminHandler) UpdateExecutionServiceHandler(c *gin.Context) {
	admin := c.GetString("admin_username")

	var req updateExecutionServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "INVALID_REQUEST",
		})
		return
	}

	if err := h.treasury.UpdateExecutionService(c.Request.Context(), req.Address, admin); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"address": req.Address},
	})
}

// StatusHandler handles GET /api/v1/admin/status.
func (h *AdminHandler) StatusHandler(c *gin.Context) {
	executor, err := h.configs.GetExecutorAddress(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if executor == "" && config.AppConfig != nil {
		executor = config.AppConfig.Blockchain.ExecutorAddress
	}

	fees := gin.H{}
	if config.AppConfig != nil {
		for assetKey := range config.AppConfig.Assets {
			balance, err := h.ledger.GetFeeBalance(c.Request.Context(), assetKey)
			if err != nil {
				respondError(c, err)
				return
			}
			fees[assetKey] = balance.String()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"paused":            h.breaker.Paused(),
			"execution_service": executor,
			"fees":              fees,
		},
	})
}
