package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthHandler authenticates the operator: bcrypt password check plus a
// TOTP code, traded for a short-lived admin JWT.
type AdminAuthHandler struct {
	jwtSecret  []byte
	totpSecret string
}

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code" binding:"required"`
}

type AdminLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// AdminJWTClaims is the admin token payload.
type AdminJWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func adminJWTSecret() []byte {
	if s := os.Getenv("ADMIN_JWT_SECRET"); s != "" {
		return []byte(s)
	}
	logrus.Warn("ADMIN_JWT_SECRET not set, using default secret")
	return []byte("fundrouter-admin-jwt-secret-change-me")
}

func NewAdminAuthHandler() *AdminAuthHandler {
	totpSecret := os.Getenv("ADMIN_TOTP_SECRET")
	if totpSecret == "" || os.Getenv("ADMIN_PASSWORD_HASH") == "" {
		logrus.Warn("ADMIN_TOTP_SECRET or ADMIN_PASSWORD_HASH not set, admin login will be rejected")
	}
	return &AdminAuthHandler{
		jwtSecret:  adminJWTSecret(),
		totpSecret: totpSecret,
	}
}

// AdminLoginHandler validates credentials and TOTP, then issues the admin
// JWT used by the administrative endpoints.
func (h *AdminAuthHandler) AdminLoginHandler(c *gin.Context) {
	passwordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if h.totpSecret == "" || passwordHash == "" {
		c.JSON(http.StatusInternalServerError, AdminLoginResponse{
			Success: false,
			Message: "server misconfiguration: admin credentials not set",
		})
		return
	}

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, AdminLoginResponse{
			Success: false,
			Message: fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	expectedUsername := os.Getenv("ADMIN_USERNAME")
	if expectedUsername == "" {
		expectedUsername = "admin"
	}

	// Deliberately uniform error message for all credential failures.
	if req.Username != expectedUsername ||
		bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, AdminLoginResponse{
			Success: false,
			Message: "invalid credentials",
		})
		return
	}

	if !totp.Validate(req.TOTPCode, h.totpSecret) {
		c.JSON(http.StatusUnauthorized, AdminLoginResponse{
			Success: false,
			Message: "invalid TOTP code",
		})
		return
	}

	token, err := h.generateAdminJWT(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, AdminLoginResponse{
			Success: false,
			Message: "failed to generate token",
		})
		return
	}

	logrus.WithField("username", req.Username).Info("admin authenticated")
	c.JSON(http.StatusOK, AdminLoginResponse{
		Success: true,
		Token:   token,
		Message: "login successful",
	})
}

// GenerateTOTPSecretHandler bootstraps a TOTP secret. Disabled once the
// environment is configured.
func (h *AdminAuthHandler) GenerateTOTPSecretHandler(c *gin.Context) {
	if os.Getenv("ADMIN_TOTP_SECRET") != "" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "TOTP secret already configured in environment",
		})
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "FundRouter Admin",
		AccountName: "admin@fundrouter",
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to generate TOTP secret",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"secret":  key.Secret(),
		"url":     key.URL(),
		"message": "save this secret to the ADMIN_TOTP_SECRET env var",
	})
}

func (h *AdminAuthHandler) generateAdminJWT(username string) (string, error) {
	claims := AdminJWTClaims{
		Username: username,
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "fundrouter-admin",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// ValidateAdminJWT parses and verifies an admin token.
func ValidateAdminJWT(tokenString string) (*AdminJWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return adminJWTSecret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims, ok := token.Claims.(*AdminJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
