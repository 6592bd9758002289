package middleware

import (
	"net/http"

	"fundrouter/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminAuthMiddleware validates admin JWTs for the administrative surface.
type AdminAuthMiddleware struct {
	logger *logrus.Logger
}

func NewAdminAuthMiddleware(logger *logrus.Logger) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{logger: logger}
}

// RequireAdminAuth rejects requests without a valid admin Bearer token.
func (a *AdminAuthMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication required",
				"code":    "MISSING_AUTH_HEADER",
			})
			return
		}

		claims, err := handlers.ValidateAdminJWT(tokenString)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"error":  err.Error(),
			}).Warn("admin auth failed - invalid token")

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		if claims.Role != "admin" {
			a.logger.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"role": claims.Role,
			}).Warn("admin auth failed - insufficient permissions")

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "insufficient permissions",
				"code":    "INSUFFICIENT_PERMISSIONS",
			})
			return
		}

		c.Set("admin_username", claims.Username)
		c.Next()
	}
}
