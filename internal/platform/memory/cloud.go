package memory

import (
	"context"
	"encoding/json"
	stdsync "sync"
	"time"

	"github.com/altamarket/backoffice/internal/domain/sync"
)

// CloudStore is an in-memory sync.CloudStore for device-less dev mode and
// tests. Err, when set, makes every operation fail with it, which is how
// tests simulate an unreachable or unauthorized remote.
type CloudStore struct {
	mu    stdsync.RWMutex
	paths map[string]map[string]sync.Doc

	Err error
}

// NewCloudStore creates an empty in-memory cloud store
func NewCloudStore() *CloudStore {
	return &CloudStore{
		paths: make(map[string]map[string]sync.Doc),
	}
}

// ListDocuments returns every document under a path
func (s *CloudStore) ListDocuments(ctx context.Context, path string) ([]sync.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}
	docs := make([]sync.Doc, 0, len(s.paths[path]))
	for _, doc := range s.paths[path] {
		docs = append(docs, doc)
	}
	return docs, nil
}

// SetDocumentMerge merges top-level fields into the document under a path
func (s *CloudStore) SetDocumentMerge(ctx context.Context, path, id string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	merged := make(map[string]interface{})
	if existing, ok := s.paths[path][id]; ok {
		if err := json.Unmarshal(existing.Body, &merged); err != nil {
			merged = make(map[string]interface{})
		}
	}
	for field, value := range data {
		merged[field] = value
	}

	body, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	var updatedAt time.Time
	if raw, ok := merged["updatedAt"].(string); ok {
		if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			updatedAt = at
		}
	}

	if s.paths[path] == nil {
		s.paths[path] = make(map[string]sync.Doc)
	}
	s.paths[path][id] = sync.Doc{ID: id, UpdatedAt: updatedAt, Body: body}
	return nil
}

// DeleteDocument removes a document under a path
func (s *CloudStore) DeleteDocument(ctx context.Context, path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	delete(s.paths[path], id)
	return nil
}
