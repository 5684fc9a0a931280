package tenant

import (
	"context"
)

// Identity carries the caller's identity for tenant-scoped operations.
// It is passed explicitly to every call that touches tenant data; nothing
// in this module reads identity from ambient state.
type Identity struct {
	UserID   string
	TenantID string
	DeviceID string
}

// IdentityProvider resolves the identity bound to the running terminal.
type IdentityProvider interface {
	Current(ctx context.Context) (*Identity, error)
}
