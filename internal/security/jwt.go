package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AdminClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// AdminTokenManager signs and verifies the short-lived session tokens handed
// out by the admin login endpoint.
type AdminTokenManager struct {
	issuer   string
	audience string
	secret   []byte
}

func NewAdminTokenManager(issuer, audience, secret string) *AdminTokenManager {
	return &AdminTokenManager{issuer: issuer, audience: audience, secret: []byte(secret)}
}

func (m *AdminTokenManager) Sign(username string, ttl time.Duration) (string, error) {
	claims := AdminClaims{
		TokenType: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			Audience:  []string{m.audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *AdminTokenManager) Parse(raw string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithAudience(m.audience))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != "admin" {
		return nil, errors.New("unexpected token type")
	}
	return claims, nil
}
