package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tobiasgrant/storefront/internal/models"
)

// TokenManager issues and verifies short-lived stateless access tokens.
// Access tokens are never persisted and never revocable; their short TTL
// bounds the blast radius of a stolen token.
type TokenManager struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewTokenManager(secret string, tokenTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Issue signs an access token carrying the user's identity claims.
func (tm *TokenManager) Issue(userID, email string) (string, error) {
	now := time.Now()

	claims := &models.AccessClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// Verify parses and validates an access token. It returns nil on any
// failure: bad signature, expiry, malformed input. Callers treat nil as
// "unauthenticated", not as an error to propagate.
func (tm *TokenManager) Verify(tokenString string) *models.AccessClaims {
	claims := &models.AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})

	if err != nil || !token.Valid {
		return nil
	}

	if claims.UserID == "" {
		return nil
	}

	return claims
}
