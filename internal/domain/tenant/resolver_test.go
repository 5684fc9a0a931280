package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altamarket/backoffice/internal/domain/errors"
)

func TestResolve(t *testing.T) {
	resolver := NewPathResolver()

	t.Run("tenant-scoped path", func(t *testing.T) {
		path, err := resolver.Resolve(&Identity{UserID: "u1", TenantID: "acme"}, "suppliers")

		require.NoError(t, err)
		assert.Equal(t, "tenants/acme/suppliers", path)
	})

	t.Run("no identity", func(t *testing.T) {
		_, err := resolver.Resolve(nil, "suppliers")

		require.Error(t, err)
		assert.ErrorIs(t, err, errors.NewAuthorizationError(""))
	})

	t.Run("identity without tenant", func(t *testing.T) {
		_, err := resolver.Resolve(&Identity{UserID: "u1"}, "suppliers")

		require.Error(t, err)
		assert.ErrorIs(t, err, errors.NewAuthorizationError(""))
	})

	t.Run("missing collection", func(t *testing.T) {
		_, err := resolver.Resolve(&Identity{TenantID: "acme"}, "")

		require.Error(t, err)
		assert.ErrorIs(t, err, errors.NewValidationError(""))
	})
}
