package router

import (
	"net/http"
	"strconv"
	"strings"

	"fundrouter/internal/config"
	"fundrouter/internal/handlers"
	"fundrouter/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	AdminAuth  *handlers.AdminAuthHandler
	Order      *handlers.OrderHandler
	Withdrawal *handlers.WithdrawalHandler
	Balance    *handlers.BalanceHandler
	Admin      *handlers.AdminHandler
	WebSocket  *handlers.WebSocketHandler
}

// New builds the gin engine with all routes and middleware attached.
func New(h Handlers, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/ping", handlers.PingHandler)
	r.GET("/health", handlers.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/events", h.WebSocket.EventsHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "route not found",
			"code":    "NOT_FOUND",
		})
	})

	auth := middleware.NewAuthMiddleware(logger)
	adminAuth := middleware.NewAdminAuthMiddleware(logger)

	var allowedIPs []string
	if config.AppConfig != nil {
		allowedIPs = config.AppConfig.Admin.AllowedIPs
	}
	allowlist := middleware.NewIPAllowlist(logger, allowedIPs)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/auth/nonce", h.Auth.GenerateNonceHandler)
		v1.POST("/auth/login", h.Auth.AuthenticateHandler)

		user := v1.Group("")
		user.Use(auth.RequireAuth())
		{
			user.POST("/orders", h.Order.SubmitOrderHandler)
			user.POST("/withdrawals", h.Withdrawal.SubmitWithdrawalHandler)
			user.GET("/balances/:asset", h.Balance.GetBalanceHandler)
			user.GET("/my/orders", h.Order.ListMyOrdersHandler)
			user.GET("/my/withdrawals", h.Withdrawal.ListMyWithdrawalsHandler)
		}

		admin := v1.Group("/admin")
		admin.Use(allowlist.Restrict())
		{
			admin.POST("/login", h.AdminAuth.AdminLoginHandler)
			admin.POST("/totp/generate", h.AdminAuth.GenerateTOTPSecretHandler)

			protected := admin.Group("")
			protected.Use(adminAuth.RequireAdminAuth())
			{
				protected.GET("/status", h.Admin.StatusHandler)
				protected.POST("/emergency/activate", h.Admin.ActivateEmergencyHandler)
				protected.POST("/emergency/deactivate", h.Admin.DeactivateEmergencyHandler)
				protected.POST("/emergency/withdraw/:asset", h.Admin.EmergencyWithdrawHandler)
				protected.GET("/fees/:asset", h.Admin.GetFeesHandler)
				protected.POST("/fees/withdraw/:asset", h.Admin.WithdrawFeesHandler)
				protected.PUT("/execution-service", h.Admin.UpdateExecutionServiceHandler)
			}
		}
	}

	return r
}

// corsMiddleware applies the configured origin allowlist. An empty
// configuration allows every origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowedOrigins := []string{"*"}
		allowCredentials := false
		maxAge := 3600

		if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		}

		origin := c.GetHeader("Origin")
		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" && originAllowed(origin, allowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept, Authorization, Cache-Control")
			c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if strings.TrimSpace(a) == origin {
			return true
		}
	}
	return false
}
