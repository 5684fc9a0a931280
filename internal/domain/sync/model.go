package sync

import (
	"fmt"
	"math/rand"
	"time"
)

// Status is the local annotation tracking whether a record's remote copy
// is confirmed current.
type Status string

const (
	// StatusPending means the record has a local write not yet confirmed remotely
	StatusPending Status = "PENDING"
	// StatusSynced means the remote copy is confirmed current
	StatusSynced Status = "SYNCED"
)

// Doc is a raw stored document: the JSON body of a record plus the
// store-level key and version used for last-writer-wins reconciliation.
type Doc struct {
	ID        string
	UpdatedAt time.Time
	Body      []byte
}

// Record is implemented by every type persisted through a Coordinator.
type Record interface {
	// RecordID returns the record's unique identifier within its collection
	RecordID() string
	// SetRecordID assigns a generated identifier to a new record
	SetRecordID(id string)
	// SortName returns the case-insensitive ordering key for GetAll
	SortName() string
	// Status returns the local sync annotation
	Status() Status
	// SetStatus sets the local sync annotation
	SetStatus(status Status)
	// Version returns the last-writer-wins timestamp
	Version() time.Time
	// SetVersion sets the last-writer-wins timestamp
	SetVersion(at time.Time)
}

// Meta carries the sync bookkeeping shared by all synchronized records.
// Embed it (by pointer receiver semantics) in any record type.
type Meta struct {
	SyncStatus Status    `json:"syncStatus,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Status returns the local sync annotation
func (m *Meta) Status() Status { return m.SyncStatus }

// SetStatus sets the local sync annotation
func (m *Meta) SetStatus(status Status) { m.SyncStatus = status }

// Version returns the last-writer-wins timestamp
func (m *Meta) Version() time.Time { return m.UpdatedAt }

// SetVersion sets the last-writer-wins timestamp
func (m *Meta) SetVersion(at time.Time) { m.UpdatedAt = at }

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID builds a practically unique record identifier in the form
// <collection>_<unix-millis>_<4 random chars>. Not cryptographically unique.
func GenerateID(collection string) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return fmt.Sprintf("%s_%d_%s", collection, time.Now().UnixMilli(), suffix)
}
