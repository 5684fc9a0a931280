package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altamarket/backoffice/internal/domain/errors"
)

func signToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return raw
}

func TestCurrent(t *testing.T) {
	secret := []byte("terminal-secret")

	t.Run("identity from token claims", func(t *testing.T) {
		provider := NewProvider(secret, "device-7")
		provider.SetToken(signToken(t, secret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			TenantID: "acme",
		}))

		id, err := provider.Current(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "user-1", id.UserID)
		assert.Equal(t, "acme", id.TenantID)
		assert.Equal(t, "device-7", id.DeviceID)
	})

	t.Run("no token bound", func(t *testing.T) {
		provider := NewProvider(secret, "device-7")

		_, err := provider.Current(context.Background())

		assert.ErrorIs(t, err, errors.NewAuthorizationError(""))
	})

	t.Run("expired token", func(t *testing.T) {
		provider := NewProvider(secret, "device-7")
		provider.SetToken(signToken(t, secret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			TenantID: "acme",
		}))

		_, err := provider.Current(context.Background())

		assert.ErrorIs(t, err, errors.NewAuthorizationError(""))
	})

	t.Run("wrong secret", func(t *testing.T) {
		provider := NewProvider(secret, "device-7")
		provider.SetToken(signToken(t, []byte("other-secret"), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
			TenantID:         "acme",
		}))

		_, err := provider.Current(context.Background())

		assert.ErrorIs(t, err, errors.NewAuthorizationError(""))
	})
}
