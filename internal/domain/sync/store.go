package sync

import (
	"context"
)

// LocalStore is the durable on-device document store. It owns local truth;
// every operation completes without network access.
type LocalStore interface {
	// GetAll returns every document in a collection
	GetAll(ctx context.Context, collection string) ([]Doc, error)

	// Get returns a single document, or a NOT_FOUND error
	Get(ctx context.Context, collection, id string) (*Doc, error)

	// Put inserts or replaces a document
	Put(ctx context.Context, collection string, doc Doc) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Transaction runs fn against a write batch for one collection,
	// committing atomically when fn returns nil
	Transaction(ctx context.Context, collection string, fn func(Batch) error) error
}

// Batch is a write batch inside a LocalStore transaction.
type Batch interface {
	Put(doc Doc) error
	Delete(id string) error
}

// CloudStore is the remote, path-addressed document store. Paths are
// resolved per tenant (tenants/{tenantId}/{collection}).
type CloudStore interface {
	// ListDocuments returns every document under a path
	ListDocuments(ctx context.Context, path string) ([]Doc, error)

	// SetDocumentMerge writes a document, merging top-level fields into
	// any existing copy
	SetDocumentMerge(ctx context.Context, path, id string, data map[string]interface{}) error

	// DeleteDocument removes a document
	DeleteDocument(ctx context.Context, path, id string) error
}

// Connectivity reports whether the terminal currently has a usable
// network path to the cloud store. Polled before each cloud attempt.
type Connectivity interface {
	Online() bool
}
