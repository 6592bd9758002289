package middleware

import (
	"net/http"
	"strings"

	"fundrouter/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware validates user JWTs and puts the wallet address on the
// request context.
type AuthMiddleware struct {
	logger *logrus.Logger
}

func NewAuthMiddleware(logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{logger: logger}
}

// RequireAuth rejects requests without a valid Bearer token.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			a.logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Warn("auth failed - missing or malformed Authorization header")

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication required",
				"code":    "MISSING_AUTH_HEADER",
			})
			return
		}

		claims, err := handlers.ValidateUserJWT(tokenString)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"error":  err.Error(),
			}).Warn("auth failed - invalid token")

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		c.Set("user_address", claims.UserAddress)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return token, token != ""
}
