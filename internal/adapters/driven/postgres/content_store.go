package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.ContentStore = (*ContentStore)(nil)

// ContentStore implements driven.ContentStore using PostgreSQL.
// Store order is first-insert order; upserts keep a document's position.
type ContentStore struct {
	db *DB
}

// NewContentStore creates a new ContentStore
func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

const documentColumns = `id, url, title, body, source_kind, fetched_at`

const upsertDocument = `
	INSERT INTO documents (id, url, title, body, source_kind, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		url = EXCLUDED.url,
		title = EXCLUDED.title,
		body = EXCLUDED.body,
		source_kind = EXCLUDED.source_kind,
		fetched_at = EXCLUDED.fetched_at,
		updated_at = NOW()
`

// ListAll returns every document in store order
func (s *ContentStore) ListAll(ctx context.Context) ([]*domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns total document count
func (s *ContentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Get retrieves a document by ID
func (s *ContentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// SaveBatch upserts documents in one transaction
func (s *ContentStore) SaveBatch(ctx context.Context, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertDocument)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, doc := range docs {
			if _, err := stmt.ExecContext(ctx,
				doc.ID,
				doc.URL,
				doc.Title,
				doc.Body,
				string(doc.SourceKind),
				doc.FetchedAt,
			); err != nil {
				return fmt.Errorf("upsert document %s: %w", doc.ID, err)
			}
		}
		return nil
	})
}

// Ping checks the database is reachable
func (s *ContentStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var kind string
	if err := row.Scan(&doc.ID, &doc.URL, &doc.Title, &doc.Body, &kind, &doc.FetchedAt); err != nil {
		return nil, err
	}
	doc.SourceKind = domain.SourceKind(kind)
	return &doc, nil
}
