package token

import (
	"context"
	stdsync "sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/altamarket/backoffice/internal/domain/errors"
	"github.com/altamarket/backoffice/internal/domain/tenant"
)

// Claims represents the claims in a terminal access token
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	TenantID string `json:"custom:tenantId"`
}

// Provider resolves the terminal's identity from its current access token.
// Terminals receive a signed token when they enroll; the tenant binding
// lives in the token's claims, never in ambient state.
type Provider struct {
	mu       stdsync.RWMutex
	secret   []byte
	deviceID string
	raw      string
}

// NewProvider creates a provider verifying tokens with the given HMAC secret
func NewProvider(secret []byte, deviceID string) *Provider {
	return &Provider{
		secret:   secret,
		deviceID: deviceID,
	}
}

// SetToken binds a new access token to the terminal
func (p *Provider) SetToken(raw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = raw
}

// Current returns the identity bound to the current token
func (p *Provider) Current(ctx context.Context) (*tenant.Identity, error) {
	p.mu.RLock()
	raw := p.raw
	p.mu.RUnlock()

	if raw == "" {
		return nil, errors.NewAuthorizationError("no access token bound to terminal")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewAuthorizationError("unexpected token signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, errors.NewAuthorizationError("invalid access token").WithDetail("cause", err.Error())
	}
	if !token.Valid {
		return nil, errors.NewAuthorizationError("invalid access token")
	}

	return &tenant.Identity{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		DeviceID: p.deviceID,
	}, nil
}
