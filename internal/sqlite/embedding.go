package sqlite

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/meshit/meshit/internal/embedding"
	"github.com/meshit/meshit/internal/repository"
)

// EmbeddingStore implements embedding.Store on the profiles and postings tables.
type EmbeddingStore struct {
	db *DB
}

// NewEmbeddingStore creates a new EmbeddingStore
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// SaveEmbedding overwrites the embedding of a profile or posting.
func (s *EmbeddingStore) SaveEmbedding(ctx context.Context, kind embedding.Kind, id string, vec pgvector.Vector) error {
	var table string
	switch kind {
	case embedding.KindProfile:
		table = "profiles"
	case embedding.KindPosting:
		table = "postings"
	default:
		return fmt.Errorf("unknown embedding kind %q", kind)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET embedding = ? WHERE id = ?`, nullVector(&vec), id)
	if err != nil {
		return fmt.Errorf("failed to save %s embedding: %w", kind, err)
	}
	ok, err := checkAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}
