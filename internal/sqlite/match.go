package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/repository"
)

const matchColumns = `
	id, profile_id, posting_id, score, semantic, skills_overlap, experience_match,
	commitment_match, status, created_at, updated_at`

// MatchRepository implements matching.Repository for SQLite. A profile and a
// posting have at most one match row.
type MatchRepository struct {
	db *DB
}

// NewMatchRepository creates a new MatchRepository
func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateIfAbsent inserts m unless the pair already has a match.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, m *matching.Match) (*matching.Match, bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, posting_id) DO NOTHING
	`,
		m.ID,
		m.ProfileID,
		m.PostingID,
		m.Score,
		m.Breakdown.Semantic,
		m.Breakdown.SkillsOverlap,
		m.Breakdown.ExperienceMatch,
		m.Breakdown.CommitmentMatch,
		m.Status,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return nil, false, writeError(err, "create match")
	}
	created, err := checkAffected(res)
	if err != nil {
		return nil, false, err
	}

	stored, err := r.byPair(ctx, m.ProfileID, m.PostingID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// Upsert stores m. An existing row takes the new score but keeps its status.
func (r *MatchRepository) Upsert(ctx context.Context, m *matching.Match) (*matching.Match, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, posting_id) DO UPDATE SET
			score = excluded.score,
			semantic = excluded.semantic,
			skills_overlap = excluded.skills_overlap,
			experience_match = excluded.experience_match,
			commitment_match = excluded.commitment_match,
			updated_at = excluded.updated_at
	`,
		m.ID,
		m.ProfileID,
		m.PostingID,
		m.Score,
		m.Breakdown.Semantic,
		m.Breakdown.SkillsOverlap,
		m.Breakdown.ExperienceMatch,
		m.Breakdown.CommitmentMatch,
		m.Status,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return nil, writeError(err, "upsert match")
	}
	return r.byPair(ctx, m.ProfileID, m.PostingID)
}

// Get retrieves a match by ID
func (r *MatchRepository) Get(ctx context.Context, id string) (*matching.Match, error) {
	list, err := r.query(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

// ListForPosting returns a posting's matches, best score first.
func (r *MatchRepository) ListForPosting(ctx context.Context, postingID string) ([]matching.Match, error) {
	return r.query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE posting_id = ?
		ORDER BY score DESC, id
	`, postingID)
}

// ListForProfile returns a profile's matches, best score first.
func (r *MatchRepository) ListForProfile(ctx context.Context, profileID string) ([]matching.Match, error) {
	return r.query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE profile_id = ?
		ORDER BY score DESC, id
	`, profileID)
}

// UpdateStatus moves a match between statuses on behalf of the matched
// profile or the posting creator.
func (r *MatchRepository) UpdateStatus(ctx context.Context, actorID, id string, from, to matching.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
			AND (profile_id = ? OR posting_id IN (SELECT id FROM postings WHERE creator_id = ?))
	`, to, time.Now().UTC(), id, from, actorID, actorID)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	ok, err := checkAffected(res)
	if err != nil || ok {
		return err
	}
	var status string
	return missingOrStale(r.db.QueryRowContext(ctx, `
		SELECT status FROM matches
		WHERE id = ? AND (profile_id = ? OR posting_id IN (SELECT id FROM postings WHERE creator_id = ?))
	`, id, actorID, actorID).Scan(&status))
}

func (r *MatchRepository) byPair(ctx context.Context, profileID, postingID string) (*matching.Match, error) {
	list, err := r.query(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE profile_id = ? AND posting_id = ?`, profileID, postingID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

func (r *MatchRepository) query(ctx context.Context, query string, args ...any) ([]matching.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var list []matching.Match
	for rows.Next() {
		var m matching.Match
		err := rows.Scan(
			&m.ID,
			&m.ProfileID,
			&m.PostingID,
			&m.Score,
			&m.Breakdown.Semantic,
			&m.Breakdown.SkillsOverlap,
			&m.Breakdown.ExperienceMatch,
			&m.Breakdown.CommitmentMatch,
			&m.Status,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return list, nil
}

// CandidateRepository implements matching.CandidateRepository for SQLite
type CandidateRepository struct {
	db *DB
}

// NewCandidateRepository creates a new CandidateRepository
func NewCandidateRepository(db *DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Candidates returns up to limit profiles other than the posting creator,
// closest embedding first. Profiles without an embedding come last.
func (r *CandidateRepository) Candidates(ctx context.Context, postingID string, limit int) ([]profile.Profile, error) {
	var creatorID string
	err := r.db.QueryRowContext(ctx, `SELECT creator_id FROM postings WHERE id = ?`, postingID).Scan(&creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posting creator: %w", err)
	}

	return queryProfiles(ctx, r.db, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id != ?
		ORDER BY cosine_similarity(embedding, (SELECT p.embedding FROM postings p WHERE p.id = ?)) DESC, id
		LIMIT ?
	`, creatorID, postingID, limit)
}

// SimilarityRepository implements matching.SimilarityRepository with the
// cosine_similarity SQL function.
type SimilarityRepository struct {
	db *DB
}

// NewSimilarityRepository creates a new SimilarityRepository
func NewSimilarityRepository(db *DB) *SimilarityRepository {
	return &SimilarityRepository{db: db}
}

// Similarities returns the cosine similarity between the posting and each
// profile. Pairs where either side lacks an embedding are left out.
func (r *SimilarityRepository) Similarities(ctx context.Context, postingID string, profileIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(profileIDs))
	if len(profileIDs) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(profileIDs)+1)
	args = append(args, postingID)
	for _, id := range profileIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT pr.id, cosine_similarity(pr.embedding, p.embedding)
		FROM profiles pr, postings p
		WHERE p.id = ? AND pr.id IN (`+placeholders(len(profileIDs))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query similarities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			sim sql.NullFloat64
		)
		if err := rows.Scan(&id, &sim); err != nil {
			return nil, fmt.Errorf("failed to scan similarity: %w", err)
		}
		if sim.Valid {
			out[id] = sim.Float64
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similarity rows: %w", err)
	}
	return out, nil
}
