// internal/common/utils/jwt.go
// JWT access token generation and validation

package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const TokenTypeAccess = "access"

var (
	ErrInvalidToken = errors.New("invalid token")
)

// JWTClaims is what the API needs out of a token issued by the identity service
type JWTClaims struct {
	UserID    int64
	Email     string
	Type      string
	ExpiresAt int64
	IssuedAt  int64
}

// GenerateJWT signs claims with HS256. user_id is encoded as a string.
func GenerateJWT(claims *JWTClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": strconv.FormatInt(claims.UserID, 10),
		"email":   claims.Email,
		"type":    claims.Type,
		"exp":     claims.ExpiresAt,
		"iat":     claims.IssuedAt,
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// NewAccessToken is a shortcut for an access token valid for ttl
func NewAccessToken(userID int64, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	return GenerateJWT(&JWTClaims{
		UserID:    userID,
		Email:     email,
		Type:      TokenTypeAccess,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}, secret)
}

// ValidateJWT validates a token and returns its claims
func ValidateJWT(tokenString string, secret string) (*JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user_id format", ErrInvalidToken)
	}

	return &JWTClaims{
		UserID:    userID,
		Email:     getStringClaim(claims, "email"),
		Type:      getStringClaim(claims, "type"),
		ExpiresAt: getInt64Claim(claims, "exp"),
		IssuedAt:  getInt64Claim(claims, "iat"),
	}, nil
}

// Helper functions to safely extract claims
func getStringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func getInt64Claim(claims jwt.MapClaims, key string) int64 {
	if val, ok := claims[key].(float64); ok {
		return int64(val)
	}
	return 0
}
