package server

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService provides bearer token generation and validation.
type JWTService struct {
	secret     []byte
	expiration time.Duration
}

// NewJWTService creates a JWT service signing with the given secret.
func NewJWTService(secret string, expiration time.Duration) *JWTService {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &JWTService{secret: []byte(secret), expiration: expiration}
}

// GenerateToken issues a token for the given subject.
func (s *JWTService) GenerateToken(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a token and returns its subject. Implements
// middleware.TokenValidator.
func (s *JWTService) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token is invalid")
	}
	return claims.Subject, nil
}
