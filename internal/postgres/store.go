// Package postgres keeps embeddings in Postgres with the pgvector extension
// and answers similarity queries with its cosine-distance operator.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/meshit/meshit/internal/embedding"
)

// NewPool creates and verifies a pgxpool connection pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// Store implements embedding.Store and matching.SimilarityRepository.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store on an open pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{pool: pool, logger: logger}
}

// EnsureSchema creates the vector extension and the embeddings table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding vector NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure embeddings schema: %w", err)
		}
	}
	return nil
}

// SaveEmbedding stores or replaces the embedding of a profile or posting.
func (s *Store) SaveEmbedding(ctx context.Context, kind embedding.Kind, id string, vec pgvector.Vector) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO embeddings (kind, id, embedding, updated_at)
		VALUES ($1, $2, $3::vector, now())
		ON CONFLICT (kind, id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at
	`, string(kind), id, vec.String())
	if err != nil {
		return fmt.Errorf("save %s embedding: %w", kind, err)
	}
	return nil
}

// Similarities returns 1 - cosine distance between the posting and each
// profile. Pairs of different dimensions or without an embedding are left out.
func (s *Store) Similarities(ctx context.Context, postingID string, profileIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(profileIDs))
	if len(profileIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT pr.id, 1 - (pr.embedding <=> p.embedding)
		FROM embeddings pr
		JOIN embeddings p ON p.kind = 'posting' AND p.id = $1
		WHERE pr.kind = 'profile'
			AND pr.id = ANY($2)
			AND vector_dims(pr.embedding) = vector_dims(p.embedding)
	`, postingID, profileIDs)
	if err != nil {
		return nil, fmt.Errorf("query similarities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			sim *float64
		)
		if err := rows.Scan(&id, &sim); err != nil {
			return nil, fmt.Errorf("scan similarity: %w", err)
		}
		// Zero vectors yield NaN.
		if sim == nil || math.IsNaN(*sim) {
			continue
		}
		out[id] = *sim
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarities: %w", err)
	}
	s.logger.Debug("similarities computed", "posting_id", postingID, "requested", len(profileIDs), "found", len(out))
	return out, nil
}
