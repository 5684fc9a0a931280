package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/altamarket/backoffice/internal/domain/errors"
	"github.com/altamarket/backoffice/internal/domain/sync"
)

// Store is the durable on-device LocalStore, backed by a single SQLite
// documents table keyed by (collection, id). SQLite is opened in WAL mode
// so readers never block the single writer.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the store at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		body       BLOB NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetAll returns every document in a collection
func (s *Store) GetAll(ctx context.Context, collection string) ([]sync.Doc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, updated_at, body FROM documents WHERE collection = ? ORDER BY id`,
		collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []sync.Doc
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Get returns a single document, or a NOT_FOUND error
func (s *Store) Get(ctx context.Context, collection, id string) (*sync.Doc, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, updated_at, body FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	doc, err := scanDoc(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("document %s not found in %s", id, collection))
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Put inserts or replaces a document
func (s *Store) Put(ctx context.Context, collection string, doc sync.Doc) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, updated_at, body) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET updated_at = excluded.updated_at, body = excluded.body`,
		collection, doc.ID, doc.UpdatedAt.UTC().Format(time.RFC3339Nano), doc.Body)
	return err
}

// Delete removes a document; deleting an absent document is a no-op
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	return err
}

// Transaction runs fn against a write batch for one collection and
// commits atomically when fn returns nil.
func (s *Store) Transaction(ctx context.Context, collection string, fn func(sync.Batch) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	batch := &sqlBatch{ctx: ctx, tx: tx, collection: collection}
	if err := fn(batch); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type sqlBatch struct {
	ctx        context.Context
	tx         *sql.Tx
	collection string
}

func (b *sqlBatch) Put(doc sync.Doc) error {
	_, err := b.tx.ExecContext(b.ctx,
		`INSERT INTO documents (collection, id, updated_at, body) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET updated_at = excluded.updated_at, body = excluded.body`,
		b.collection, doc.ID, doc.UpdatedAt.UTC().Format(time.RFC3339Nano), doc.Body)
	return err
}

func (b *sqlBatch) Delete(id string) error {
	_, err := b.tx.ExecContext(b.ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, b.collection, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoc(row scanner) (sync.Doc, error) {
	var doc sync.Doc
	var updatedAt string
	if err := row.Scan(&doc.ID, &updatedAt, &doc.Body); err != nil {
		return sync.Doc{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return sync.Doc{}, fmt.Errorf("invalid updated_at for document %s: %w", doc.ID, err)
	}
	doc.UpdatedAt = at
	return doc, nil
}
