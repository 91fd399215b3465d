package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"

	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/embedding"
	"github.com/meshit/meshit/internal/repository"
)

func newMatch(id, profileID, postingID string, score float64) *matching.Match {
	now := time.Now().UTC()
	return &matching.Match{
		ID:        id,
		ProfileID: profileID,
		PostingID: postingID,
		Score:     score,
		Breakdown: matching.Breakdown{Semantic: score, SkillsOverlap: 0.5},
		Status:    matching.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMatchRepository_CreateIfAbsent(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "creator")
	seedProfile(t, db, "alice")
	seedPosting(t, db, "p1", "creator", 2, false)

	stored, created, err := repo.CreateIfAbsent(ctx, newMatch("m1", "alice", "p1", 0.8))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "m1", stored.ID)

	stored, created, err = repo.CreateIfAbsent(ctx, newMatch("m2", "alice", "p1", 0.3))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "m1", stored.ID)
	require.InDelta(t, 0.8, stored.Score, 1e-9)

	_, _, err = repo.CreateIfAbsent(ctx, newMatch("m3", "ghost", "p1", 0.3))
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestMatchRepository_UpsertKeepsStatus(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "creator")
	seedProfile(t, db, "alice")
	seedPosting(t, db, "p1", "creator", 2, false)

	_, _, err := repo.CreateIfAbsent(ctx, newMatch("m1", "alice", "p1", 0.4))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, "alice", "m1", matching.StatusPending, matching.StatusApplied))

	stored, err := repo.Upsert(ctx, newMatch("m9", "alice", "p1", 0.9))
	require.NoError(t, err)
	require.Equal(t, "m1", stored.ID)
	require.InDelta(t, 0.9, stored.Score, 1e-9)
	require.Equal(t, matching.StatusApplied, stored.Status)
}

func TestMatchRepository_ListAndUpdate(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "creator")
	seedProfile(t, db, "alice")
	seedProfile(t, db, "bob")
	seedPosting(t, db, "p1", "creator", 2, false)
	seedPosting(t, db, "p2", "creator", 2, false)

	for _, m := range []*matching.Match{
		newMatch("m1", "alice", "p1", 0.4),
		newMatch("m2", "bob", "p1", 0.7),
		newMatch("m3", "alice", "p2", 0.9),
	} {
		_, _, err := repo.CreateIfAbsent(ctx, m)
		require.NoError(t, err)
	}

	byPosting, err := repo.ListForPosting(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, byPosting, 2)
	require.Equal(t, "m2", byPosting[0].ID)

	byProfile, err := repo.ListForProfile(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byProfile, 2)
	require.Equal(t, "m3", byProfile[0].ID)

	// The creator may act, other profiles may not.
	require.ErrorIs(t, repo.UpdateStatus(ctx, "bob", "m1", matching.StatusPending, matching.StatusDeclined), repository.ErrNotFound)
	require.NoError(t, repo.UpdateStatus(ctx, "creator", "m1", matching.StatusPending, matching.StatusDeclined))
	require.ErrorIs(t, repo.UpdateStatus(ctx, "alice", "m1", matching.StatusPending, matching.StatusApplied), repository.ErrConflict)

	got, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, matching.StatusDeclined, got.Status)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCandidateAndSimilarityRepositories(t *testing.T) {
	db := NewTestDB(t)
	store := NewEmbeddingStore(db)
	ctx := context.Background()

	seedProfile(t, db, "creator", 1, 0)
	seedProfile(t, db, "close", 0.9, 0.1)
	seedProfile(t, db, "far", 0, 1)
	seedProfile(t, db, "blank")
	seedPosting(t, db, "p1", "creator", 2, false)
	require.NoError(t, store.SaveEmbedding(ctx, embedding.KindPosting, "p1", pgvector.NewVector([]float32{1, 0})))

	candidates, err := NewCandidateRepository(db).Candidates(ctx, "p1", 10)
	require.NoError(t, err)
	var ids []string
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []string{"close", "far", "blank"}, ids)

	limited, err := NewCandidateRepository(db).Candidates(ctx, "p1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	_, err = NewCandidateRepository(db).Candidates(ctx, "missing", 10)
	require.ErrorIs(t, err, repository.ErrNotFound)

	sims, err := NewSimilarityRepository(db).Similarities(ctx, "p1", []string{"close", "far", "blank"})
	require.NoError(t, err)
	require.Len(t, sims, 2)
	require.Greater(t, sims["close"], 0.9)
	require.InDelta(t, 0, sims["far"], 1e-9)
	_, ok := sims["blank"]
	require.False(t, ok)

	empty, err := NewSimilarityRepository(db).Similarities(ctx, "p1", nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
