package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

type JWTManager struct {
	secret []byte
	expiry time.Duration
}

// SessionClaims carries the full principal so handlers never need a user
// lookup just to name the actor in a log entry.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTManager(secret string, expiry time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (m *JWTManager) Generate(p domain.Principal) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.expiry)
	claims := SessionClaims{
		UserID: p.UserID,
		Name:   p.Name,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "magazyn",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}

	return signed, expiresAt, nil
}

func (m *JWTManager) Validate(tokenStr string) (domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("parse jwt: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return domain.Principal{}, fmt.Errorf("invalid token claims")
	}

	return domain.Principal{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   domain.Role(claims.Role),
	}, nil
}
