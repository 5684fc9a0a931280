package catalog

import (
	"github.com/altamarket/backoffice/internal/domain/sync"
)

// Master data collections
const (
	CollectionCategories = "categories"
	CollectionBrands     = "brands"
	CollectionSuppliers  = "suppliers"
)

// MasterItem is one catalog master data record: a category, brand or
// supplier. One per tenant-collection-id; created on save and only ever
// mutated by a full save or delete, never partially updated.
type MasterItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	sync.Meta
}

// RecordID returns the item's identifier
func (m *MasterItem) RecordID() string { return m.ID }

// SetRecordID assigns a generated identifier
func (m *MasterItem) SetRecordID(id string) { m.ID = id }

// SortName returns the list ordering key
func (m *MasterItem) SortName() string { return m.Name }
