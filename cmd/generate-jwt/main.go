package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserJWTClaims mirrors the claims issued by the login endpoint.
type UserJWTClaims struct {
	UserAddress string `json:"user_address"`
	jwt.RegisteredClaims
}

func main() {
	userAddress := flag.String("address", "0x742d35Cc6634C0532925a3b0F26750C66d78EB66", "wallet address for the token")
	validity := flag.Duration("validity", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "fundrouter-jwt-secret-change-me"
	}

	now := time.Now()
	claims := UserJWTClaims{
		UserAddress: *userAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(*validity)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "fundrouter",
			Subject:   *userAddress,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Printf("Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Token:")
	fmt.Println(tokenString)
	fmt.Println()
	fmt.Printf("  User Address: %s\n", *userAddress)
	fmt.Printf("  Expires: %s\n", claims.ExpiresAt.Time)
	fmt.Println()
	fmt.Printf("curl -H \"Authorization: Bearer %s\" http://localhost:8080/api/v1/my/orders\n", tokenString)
}
