package tenant

import (
	"fmt"

	"github.com/altamarket/backoffice/internal/domain/errors"
)

// PathResolver builds the tenant-scoped storage path for a collection.
// Deterministic and side-effect free; fails closed when no tenant is bound.
type PathResolver struct{}

// NewPathResolver creates a new path resolver
func NewPathResolver() *PathResolver {
	return &PathResolver{}
}

// Resolve returns the cloud document path for a collection,
// in the form tenants/{tenantId}/{collection}.
func (r *PathResolver) Resolve(id *Identity, collection string) (string, error) {
	if id == nil || id.TenantID == "" {
		return "", errors.NewAuthorizationError("no tenant bound to current identity")
	}
	if collection == "" {
		return "", errors.NewValidationError("collection name is required")
	}
	return fmt.Sprintf("tenants/%s/%s", id.TenantID, collection), nil
}
