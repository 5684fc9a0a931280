package memory

import (
	"context"
	"fmt"
	"sort"
	stdsync "sync"

	"github.com/altamarket/backoffice/internal/domain/errors"
	"github.com/altamarket/backoffice/internal/domain/sync"
)

// Store is an in-memory LocalStore used in device-less dev mode and tests.
type Store struct {
	mu          stdsync.RWMutex
	collections map[string]map[string]sync.Doc
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]sync.Doc),
	}
}

// GetAll returns every document in a collection, ordered by id for determinism
func (s *Store) GetAll(ctx context.Context, collection string) ([]sync.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]sync.Doc, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Get returns a single document
func (s *Store) Get(ctx context.Context, collection, id string) (*sync.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("document %s not found in %s", id, collection))
	}
	return &doc, nil
}

// Put inserts or replaces a document
func (s *Store) Put(ctx context.Context, collection string, doc sync.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(collection, doc)
	return nil
}

// Delete removes a document; deleting an absent document is a no-op
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

// Transaction applies a write batch atomically: nothing is visible until
// fn returns nil.
func (s *Store) Transaction(ctx context.Context, collection string, fn func(sync.Batch) error) error {
	batch := &memBatch{}
	if err := fn(batch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range batch.writes {
		if w.delete {
			delete(s.collections[collection], w.doc.ID)
			continue
		}
		s.put(collection, w.doc)
	}
	return nil
}

func (s *Store) put(collection string, doc sync.Doc) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]sync.Doc)
	}
	body := make([]byte, len(doc.Body))
	copy(body, doc.Body)
	doc.Body = body
	s.collections[collection][doc.ID] = doc
}

type write struct {
	doc    sync.Doc
	delete bool
}

type memBatch struct {
	writes []write
}

func (b *memBatch) Put(doc sync.Doc) error {
	b.writes = append(b.writes, write{doc: doc})
	return nil
}

func (b *memBatch) Delete(id string) error {
	b.writes = append(b.writes, write{doc: sync.Doc{ID: id}, delete: true})
	return nil
}
