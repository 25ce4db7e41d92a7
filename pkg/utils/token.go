package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TenantClaims are the claims carried by a tenant access token. Tokens are
// minted by the platform's auth service; this engine only verifies them and
// reads the tenant claim.
type TenantClaims struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Actor    string    `json:"actor,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager verifies tenant access tokens
type TokenManager struct {
	secretKey []byte
	expiry    time.Duration
}

// NewTokenManager creates a new token manager
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secret),
		expiry:    expiry,
	}
}

// Generate mints a tenant token. Used by tests and local tooling; in
// production tokens come from the auth service sharing the same secret.
func (m *TokenManager) Generate(tenantID uuid.UUID, actor string) (string, error) {
	claims := &TenantClaims{
		TenantID: tenantID,
		Actor:    actor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "pharmacy-api",
			Subject:   tenantID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Validate verifies a token and returns its claims
func (m *TokenManager) Validate(tokenString string) (*TenantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TenantID == uuid.Nil {
		return nil, errors.New("token carries no tenant")
	}

	return claims, nil
}
