package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sandevgo/samara/internal/core"
)

const dimensionsKey = "embedding_dimensions"

// DocumentStore keeps indexed chat documents in a plain table and their
// embeddings in a vec0 virtual table sharing the same rowid.
type DocumentStore struct {
	db   *sql.DB
	dims int
}

// NewDocumentStore creates the vec0 table for the configured size. An
// existing index built with a different size is rejected.
func NewDocumentStore(ctx context.Context, db *sql.DB, dims int) (*DocumentStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", dims)
	}

	var stored string
	err := db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = ?`, dimensionsKey).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx,
			`INSERT INTO index_meta(key, value) VALUES (?, ?)`, dimensionsKey, strconv.Itoa(dims),
		); err != nil {
			return nil, fmt.Errorf("failed to record index dimensions: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read index dimensions: %w", err)
	case stored != strconv.Itoa(dims):
		return nil, fmt.Errorf("%w: index has %s, configured %d", core.ErrDimensionMismatch, stored, dims)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_vec USING vec0(embedding float[%d])`, dims,
	)
	if _, err := db.ExecContext(ctx, createVec); err != nil {
		return nil, fmt.Errorf("failed to create vec0 table: %w", err)
	}

	return &DocumentStore{db: db, dims: dims}, nil
}

// Upsert stores records. A record whose ID exists replaces the previous row
// and embedding.
func (s *DocumentStore) Upsert(ctx context.Context, records []core.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		if len(r.Embedding) != s.dims {
			return fmt.Errorf("%w: document %s has %d, index has %d",
				core.ErrDimensionMismatch, r.ID, len(r.Embedding), s.dims)
		}

		rowID, err := upsertDocument(ctx, tx, r.Document)
		if err != nil {
			return err
		}

		blob, err := serializeVector(r.Embedding)
		if err != nil {
			return err
		}

		// vec0 has no UPDATE.
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents_vec WHERE rowid = ?`, rowID); err != nil {
			return fmt.Errorf("failed to clear embedding for %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents_vec(rowid, embedding) VALUES (?, ?)`, rowID, blob,
		); err != nil {
			return fmt.Errorf("failed to insert embedding for %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

func upsertDocument(ctx context.Context, tx *sql.Tx, d core.Document) (int64, error) {
	m := d.Metadata
	var rowID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO documents (doc_id, text, source, author, author_id, author_tag, channel, type, reply_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			text = excluded.text,
			source = excluded.source,
			author = excluded.author,
			author_id = excluded.author_id,
			author_tag = excluded.author_tag,
			channel = excluded.channel,
			type = excluded.type,
			reply_to = excluded.reply_to,
			created_at = excluded.created_at
		RETURNING rowid`,
		d.ID, d.Text, m.Source, m.Author, m.AuthorID, m.AuthorTag, m.Channel, m.Type, m.ReplyTo, m.Timestamp.UTC(),
	).Scan(&rowID)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert document %s: %w", d.ID, err)
	}
	return rowID, nil
}

// Query returns the topK nearest documents. Score is 1/(1+distance).
func (s *DocumentStore) Query(ctx context.Context, embedding []float32, topK int) ([]core.Document, error) {
	if len(embedding) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, index has %d", core.ErrDimensionMismatch, len(embedding), s.dims)
	}
	if topK <= 0 {
		topK = 10
	}
	blob, err := serializeVector(embedding)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.doc_id, d.text, d.source, d.author, d.author_id, d.author_tag,
		       d.channel, d.type, d.reply_to, d.created_at, v.distance
		FROM documents_vec v
		JOIN documents d ON d.rowid = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`,
		blob, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var out []core.Document
	for rows.Next() {
		var (
			d        core.Document
			created  time.Time
			distance float64
		)
		m := &d.Metadata
		if err := rows.Scan(&d.ID, &d.Text, &m.Source, &m.Author, &m.AuthorID, &m.AuthorTag,
			&m.Channel, &m.Type, &m.ReplyTo, &created, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		m.Timestamp = created
		d.Score = float32(1.0 / (1.0 + distance))
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return out, nil
}

func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (s *DocumentStore) Close() error {
	return s.db.Close()
}
