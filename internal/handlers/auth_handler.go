package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

func userJWTSecret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("fundrouter-jwt-secret-change-me")
}

// UserJWTClaims carries the authenticated wallet address.
type UserJWTClaims struct {
	UserAddress string `json:"user_address"`
	jwt.RegisteredClaims
}

// AuthHandler authenticates users by wallet signature: the client fetches a
// nonce message, signs it with the wallet key and trades the signature for
// a JWT.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type authenticateRequest struct {
	UserAddress string `json:"user_address" binding:"required"`
	Message     string `json:"message" binding:"required"`
	Signature   string `json:"signature" binding:"required"`
}

// GenerateNonceHandler returns a fresh message for the client to sign.
func (h *AuthHandler) GenerateNonceHandler(c *gin.Context) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to generate nonce",
		})
		return
	}

	nonceStr := hex.EncodeToString(nonce)
	timestamp := time.Now().Unix()
	message := fmt.Sprintf("FundRouter Authentication\nNonce: %s\nTimestamp: %d", nonceStr, timestamp)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"nonce":     nonceStr,
		"timestamp": timestamp,
		"message":   message,
	})
}

// AuthenticateHandler verifies the personal-sign signature and issues a JWT
// bound to the recovered address.
func (h *AuthHandler) AuthenticateHandler(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	if !common.IsHexAddress(req.UserAddress) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid user address",
		})
		return
	}

	if !verifyPersonalSignature(req.UserAddress, req.Message, req.Signature) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "signature verification failed",
		})
		return
	}

	token, err := generateUserJWT(common.HexToAddress(req.UserAddress).Hex())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to generate token",
		})
		return
	}

	logrus.WithField("user", req.UserAddress).Info("user authenticated")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

// verifyPersonalSignature recovers the signer of an eth personal_sign
// message and compares it to the claimed address.
func verifyPersonalSignature(userAddress, message, signature string) bool {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != 65 {
		return false
	}
	// personal_sign uses V of 27/28.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	hash := accounts.TextHash([]byte(message))
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false
	}
	recovered := crypto.PubkeyToAddress(*pubKey)
	return strings.EqualFold(recovered.Hex(), userAddress)
}

func generateUserJWT(userAddress string) (string, error) {
	claims := UserJWTClaims{
		UserAddress: userAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "fundrouter",
			Subject:   userAddress,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(userJWTSecret())
}

// ValidateUserJWT parses and verifies a user token.
func ValidateUserJWT(tokenString string) (*UserJWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return userJWTSecret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
