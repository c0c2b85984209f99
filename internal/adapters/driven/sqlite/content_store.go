package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.ContentStore = (*contentStore)(nil)

// contentStore keeps documents in first-insert order; upserts keep their seq.
type contentStore struct {
	store *Store
}

const selectDocument = `SELECT id, url, title, body, source_kind, fetched_at FROM documents`

func (c *contentStore) ListAll(ctx context.Context) ([]*domain.Document, error) {
	rows, err := c.store.db.QueryContext(ctx, selectDocument+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
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

func (c *contentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func (c *contentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := scanDocument(c.store.db.QueryRowContext(ctx, selectDocument+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

func (c *contentStore) SaveBatch(ctx context.Context, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, url, title, body, source_kind, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			body = excluded.body,
			source_kind = excluded.source_kind,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx,
			doc.ID, doc.URL, doc.Title, doc.Body, string(doc.SourceKind), formatTime(doc.FetchedAt),
		); err != nil {
			return fmt.Errorf("upserting document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

func (c *contentStore) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc       domain.Document
		kind      string
		fetchedAt string
	)
	if err := row.Scan(&doc.ID, &doc.URL, &doc.Title, &doc.Body, &kind, &fetchedAt); err != nil {
		return nil, err
	}
	t, err := parseTime(fetchedAt)
	if err != nil {
		return nil, err
	}
	doc.SourceKind = domain.SourceKind(kind)
	doc.FetchedAt = t
	return &doc, nil
}
