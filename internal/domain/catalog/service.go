package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/altamarket/backoffice/internal/domain/sync"
	"github.com/altamarket/backoffice/internal/domain/tenant"
)

// Service exposes the catalog master data: categories, brands and
// suppliers, each synchronized through its own coordinator.
type Service struct {
	categories *sync.Coordinator[MasterItem, *MasterItem]
	brands     *sync.Coordinator[MasterItem, *MasterItem]
	suppliers  *sync.Coordinator[MasterItem, *MasterItem]
}

// NewService creates a catalog service over the given stores
func NewService(
	local sync.LocalStore,
	cloud sync.CloudStore,
	paths *tenant.PathResolver,
	conn sync.Connectivity,
	outbox *sync.Outbox,
	log *zap.Logger,
) *Service {
	coordinator := func(collection string) *sync.Coordinator[MasterItem, *MasterItem] {
		return sync.NewCoordinator[MasterItem](collection, local, cloud, paths, conn, outbox, log)
	}
	return &Service{
		categories: coordinator(CollectionCategories),
		brands:     coordinator(CollectionBrands),
		suppliers:  coordinator(CollectionSuppliers),
	}
}

// ListCategories returns all categories, name ascending
func (s *Service) ListCategories(ctx context.Context, id *tenant.Identity) ([]*MasterItem, error) {
	return s.categories.GetAll(ctx, id)
}

// SaveCategory persists a category
func (s *Service) SaveCategory(ctx context.Context, id *tenant.Identity, item *MasterItem) (*MasterItem, error) {
	return s.categories.Save(ctx, id, item)
}

// DeleteCategory removes a category
func (s *Service) DeleteCategory(ctx context.Context, id *tenant.Identity, itemID string) error {
	return s.categories.Delete(ctx, id, itemID)
}

// ListBrands returns all brands, name ascending
func (s *Service) ListBrands(ctx context.Context, id *tenant.Identity) ([]*MasterItem, error) {
	return s.brands.GetAll(ctx, id)
}

// SaveBrand persists a brand
func (s *Service) SaveBrand(ctx context.Context, id *tenant.Identity, item *MasterItem) (*MasterItem, error) {
	return s.brands.Save(ctx, id, item)
}

// DeleteBrand removes a brand
func (s *Service) DeleteBrand(ctx context.Context, id *tenant.Identity, itemID string) error {
	return s.brands.Delete(ctx, id, itemID)
}

// ListSuppliers returns all suppliers, name ascending
func (s *Service) ListSuppliers(ctx context.Context, id *tenant.Identity) ([]*MasterItem, error) {
	return s.suppliers.GetAll(ctx, id)
}

// SaveSupplier persists a supplier
func (s *Service) SaveSupplier(ctx context.Context, id *tenant.Identity, item *MasterItem) (*MasterItem, error) {
	return s.suppliers.Save(ctx, id, item)
}

// DeleteSupplier removes a supplier
func (s *Service) DeleteSupplier(ctx context.Context, id *tenant.Identity, itemID string) error {
	return s.suppliers.Delete(ctx, id, itemID)
}
