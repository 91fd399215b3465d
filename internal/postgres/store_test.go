package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"

	"github.com/meshit/meshit/internal/embedding"
	"github.com/meshit/meshit/internal/postgres"
)

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	url := os.Getenv("MESHIT_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("MESHIT_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := postgres.NewStore(pool, nil)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestStore_Similarities(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	postingID := uuid.NewString()
	closeID, farID, otherDimID, blankID := uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()

	require.NoError(t, store.SaveEmbedding(ctx, embedding.KindPosting, postingID, pgvector.NewVector([]float32{1, 0})))
	require.NoError(t, store.SaveEmbedding(ctx, embedding.KindProfile, closeID, pgvector.NewVector([]float32{1, 0.1})))
	require.NoError(t, store.SaveEmbedding(ctx, embedding.KindProfile, farID, pgvector.NewVector([]float32{0, 1})))
	require.NoError(t, store.SaveEmbedding(ctx, embedding.KindProfile, otherDimID, pgvector.NewVector([]float32{1, 0, 0})))

	sims, err := store.Similarities(ctx, postingID, []string{closeID, farID, otherDimID, blankID})
	require.NoError(t, err)
	require.Len(t, sims, 2)
	require.Greater(t, sims[closeID], 0.9)
	require.InDelta(t, 0, sims[farID], 1e-6)

	// Saving again replaces the vector.
	require.NoError(t, store.SaveEmbedding(ctx, embedding.KindProfile, farID, pgvector.NewVector([]float32{1, 0})))
	sims, err = store.Similarities(ctx, postingID, []string{farID})
	require.NoError(t, err)
	require.InDelta(t, 1, sims[farID], 1e-6)
}

func TestStore_NoProfiles(t *testing.T) {
	store := newStore(t)

	sims, err := store.Similarities(context.Background(), "any", nil)
	require.NoError(t, err)
	require.Empty(t, sims)
}
