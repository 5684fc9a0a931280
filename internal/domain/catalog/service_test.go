package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/altamarket/backoffice/internal/domain/catalog"
	"github.com/altamarket/backoffice/internal/domain/errors"
	"github.com/altamarket/backoffice/internal/domain/sync"
	"github.com/altamarket/backoffice/internal/domain/tenant"
	"github.com/altamarket/backoffice/internal/platform/memory"
)

func newService(t *testing.T, online bool) (*catalog.Service, *tenant.Identity) {
	t.Helper()
	local := memory.NewStore()
	cloud := memory.NewCloudStore()
	paths := tenant.NewPathResolver()
	log := zap.NewNop()
	outbox := sync.NewOutbox(local, cloud, paths, log)
	service := catalog.NewService(local, cloud, paths, sync.NewMonitor(online), outbox, log)
	return service, &tenant.Identity{UserID: "user-1", TenantID: "tenant-1", DeviceID: "pos-1"}
}

func TestService_Categories(t *testing.T) {
	ctx := context.Background()

	t.Run("save assigns an id and lists sorted by name", func(t *testing.T) {
		// Setup
		service, id := newService(t, true)
		for _, name := range []string{"beverages", "Dairy", "bakery"} {
			_, err := service.SaveCategory(ctx, id, &catalog.MasterItem{Name: name})
			require.NoError(t, err)
		}

		// Act
		items, err := service.ListCategories(ctx, id)

		// Assert
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "bakery", items[0].Name)
		assert.Equal(t, "beverages", items[1].Name)
		assert.Equal(t, "Dairy", items[2].Name)
		for _, item := range items {
			assert.NotEmpty(t, item.ID)
			assert.Equal(t, sync.StatusSynced, item.Status())
		}
	})

	t.Run("delete removes the item", func(t *testing.T) {
		// Setup
		service, id := newService(t, true)
		saved, err := service.SaveCategory(ctx, id, &catalog.MasterItem{Name: "seasonal"})
		require.NoError(t, err)

		// Act
		require.NoError(t, service.DeleteCategory(ctx, id, saved.ID))

		// Assert
		items, err := service.ListCategories(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestService_CollectionsAreIndependent(t *testing.T) {
	// Setup
	ctx := context.Background()
	service, id := newService(t, true)
	_, err := service.SaveBrand(ctx, id, &catalog.MasterItem{Name: "Acme"})
	require.NoError(t, err)
	_, err = service.SaveSupplier(ctx, id, &catalog.MasterItem{Name: "Distribuidora Norte"})
	require.NoError(t, err)

	// Act
	brands, err := service.ListBrands(ctx, id)
	require.NoError(t, err)
	suppliers, err := service.ListSuppliers(ctx, id)
	require.NoError(t, err)
	categories, err := service.ListCategories(ctx, id)
	require.NoError(t, err)

	// Assert
	assert.Len(t, brands, 1)
	assert.Len(t, suppliers, 1)
	assert.Empty(t, categories)
}

func TestService_Offline(t *testing.T) {
	// Setup
	ctx := context.Background()
	service, id := newService(t, false)

	// Act
	saved, err := service.SaveSupplier(ctx, id, &catalog.MasterItem{Name: "Lacteos Sur"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, sync.StatusPending, saved.Status())

	suppliers, err := service.ListSuppliers(ctx, id)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Lacteos Sur", suppliers[0].Name)
}

func TestService_RequiresTenant(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t, true)

	_, err := service.ListCategories(ctx, nil)
	assert.ErrorIs(t, err, errors.NewAuthorizationError(""))

	_, err = service.SaveBrand(ctx, &tenant.Identity{UserID: "u"}, &catalog.MasterItem{Name: "x"})
	assert.ErrorIs(t, err, errors.NewAuthorizationError(""))
}
