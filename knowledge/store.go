package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vector"
)

// Document is one chunk in the knowledge base.
type Document struct {
	ID      string
	Source  string
	Title   string
	Content string
	// Score is the cosine similarity to the query; only set on search
	// results.
	Score float64
}

var registerOnce sync.Once

// Store is a persisted vector store on a single SQLite file. Similarity
// search runs in-database through the vec_cosine scalar function.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the store at path. Use ":memory:" for
// an ephemeral store in tests.
func OpenStore(path string) (*Store, error) {
	var registerErr error
	registerOnce.Do(func() {
		registerErr = engine.RegisterVectorFunctions(nil)
	})
	if registerErr != nil {
		return nil, fmt.Errorf("register vector functions: %w", registerErr)
	}

	db, err := engine.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	// A single connection keeps ":memory:" stores coherent and avoids busy
	// errors on concurrent writes.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to vector store: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize vector store schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id              TEXT PRIMARY KEY,
			source          TEXT NOT NULL,
			title           TEXT,
			content         TEXT NOT NULL,
			embedding       BLOB NOT NULL,
			embedding_model TEXT,
			created_at      TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add upserts documents with their embeddings. docs and embeddings must be
// aligned.
func (s *Store) Add(ctx context.Context, docs []Document, embeddings [][]float32, embeddingModel string) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("got %d documents but %d embeddings", len(docs), len(embeddings))
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents(id, source, title, content, embedding, embedding_model, created_at)
VALUES(?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	source=excluded.source,
	title=excluded.title,
	content=excluded.content,
	embedding=excluded.embedding,
	embedding_model=excluded.embedding_model`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, doc := range docs {
		blob, err := vector.EncodeEmbedding(embeddings[i])
		if err != nil {
			return fmt.Errorf("encode embedding for %s: %w", doc.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Source, doc.Title, doc.Content, blob, embeddingModel, now); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// Search returns the k documents most similar to the query embedding, best
// first.
func (s *Store) Search(ctx context.Context, queryEmbedding []float32, k int) ([]Document, error) {
	if k <= 0 {
		k = 5
	}
	blob, err := vector.EncodeEmbedding(queryEmbedding)
	if err != nil {
		return nil, fmt.Errorf("encode query embedding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, source, title, content, vec_cosine(embedding, ?) AS score
FROM documents
ORDER BY score DESC
LIMIT ?`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		var title sql.NullString
		if err := rows.Scan(&doc.ID, &doc.Source, &title, &doc.Content, &doc.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		doc.Title = title.String
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// RemoveSource deletes every chunk indexed from the given source, so a
// re-index of a changed file doesn't leave stale chunks behind.
func (s *Store) RemoveSource(ctx context.Context, source string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE source = ?`, source); err != nil {
		return fmt.Errorf("remove source %s: %w", source, err)
	}
	return nil
}

// Count reports how many chunks the store holds.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}
