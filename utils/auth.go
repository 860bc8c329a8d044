package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"go-buildmart/models"
)

// JwtKey signs and verifies tokens. Loaded from config at startup.
var JwtKey = []byte("dev-only-secret")

// TokenTTL is how long issued tokens stay valid.
var TokenTTL = 24 * time.Hour

// Claims represents the JWT claims
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// GenerateJWT issues a token for u.
func GenerateJWT(u *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: u.ID.Hex(),
		Email:  u.Email,
		Role:   u.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(TokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(JwtKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseJWT validates tokenStr and returns its claims.
func ParseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
