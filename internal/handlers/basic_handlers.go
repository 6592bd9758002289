package handlers

import (
	"net/http"

	"fundrouter/internal/db"

	"github.com/gin-gonic/gin"
)

// PingHandler handles GET /ping.
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// HealthHandler handles GET /health, checking database reachability.
func HealthHandler(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	sqlDB, err := db.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
	})
}
