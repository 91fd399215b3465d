package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/repository"
)

// PostingRepository implements posting.Repository for SQLite. Mutations are
// scoped to the creator.
type PostingRepository struct {
	db *DB
}

// NewPostingRepository creates a new PostingRepository
func NewPostingRepository(db *DB) *PostingRepository {
	return &PostingRepository{db: db}
}

// Create inserts a posting with its required skills
func (r *PostingRepository) Create(ctx context.Context, p *posting.Posting) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO postings (
				id, creator_id, title, description, category, mode, location,
				team_size_min, team_size_max, hours_per_week, experience_level,
				auto_accept, status, expires_at, embedding, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			p.ID,
			p.CreatorID,
			p.Title,
			p.Description,
			p.Category,
			p.Mode,
			p.Location,
			p.TeamSizeMin,
			p.TeamSizeMax,
			p.HoursPerWeek,
			p.ExperienceLevel,
			p.AutoAccept,
			p.Status,
			p.ExpiresAt.UTC(),
			nullVector(p.Embedding),
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return writeError(err, "create posting")
		}

		for _, sk := range p.RequiredSkills {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO posting_skills (posting_id, skill_id, min_level) VALUES (?, ?, ?)`,
				p.ID, sk.SkillID, sk.MinLevel)
			if err != nil {
				return writeError(err, "insert posting skill")
			}
		}
		return nil
	})
}

// Get retrieves a posting by ID
func (r *PostingRepository) Get(ctx context.Context, id string) (*posting.Posting, error) {
	return getPosting(ctx, r.db, id)
}

// UpdateStatus moves a posting from one status to another.
func (r *PostingRepository) UpdateStatus(ctx context.Context, actorID, id string, from, to posting.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE postings SET status = ?, updated_at = ?
		WHERE id = ? AND creator_id = ? AND status = ?
	`, to, time.Now().UTC(), id, actorID, from)
	if err != nil {
		return fmt.Errorf("failed to update posting status: %w", err)
	}
	return r.guarded(ctx, res, actorID, id)
}

// Reschedule moves a posting to a new status and expiry.
func (r *PostingRepository) Reschedule(ctx context.Context, actorID, id string, from, to posting.Status, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE postings SET status = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND creator_id = ? AND status = ?
	`, to, expiresAt.UTC(), time.Now().UTC(), id, actorID, from)
	if err != nil {
		return fmt.Errorf("failed to reschedule posting: %w", err)
	}
	return r.guarded(ctx, res, actorID, id)
}

// Repost reopens an expired posting and drops its applications and matches.
func (r *PostingRepository) Repost(ctx context.Context, actorID, id string, expiresAt time.Time) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE postings SET status = 'open', expires_at = ?, updated_at = ?
			WHERE id = ? AND creator_id = ? AND status = 'expired'
		`, expiresAt.UTC(), time.Now().UTC(), id, actorID)
		if err != nil {
			return fmt.Errorf("failed to repost posting: %w", err)
		}
		ok, err := checkAffected(res)
		if err != nil {
			return err
		}
		if !ok {
			var status string
			return missingOrStale(tx.QueryRowContext(ctx,
				`SELECT status FROM postings WHERE id = ? AND creator_id = ?`, id, actorID).Scan(&status))
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE posting_id = ?`, id); err != nil {
			return fmt.Errorf("failed to discard applications: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE posting_id = ?`, id); err != nil {
			return fmt.Errorf("failed to discard matches: %w", err)
		}
		return nil
	})
}

// ExpireDue marks open postings whose expiry has passed as expired.
func (r *PostingRepository) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE postings SET status = 'expired', updated_at = ?
		WHERE status = 'open' AND expires_at <= ?
	`, now.UTC(), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire postings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// Team returns the creator and accepted applicants of a posting.
func (r *PostingRepository) Team(ctx context.Context, postingID string) (*posting.Team, error) {
	team := &posting.Team{PostingID: postingID}
	err := r.db.QueryRowContext(ctx, `SELECT creator_id FROM postings WHERE id = ?`, postingID).Scan(&team.CreatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posting creator: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT applicant_id FROM applications
		WHERE posting_id = ? AND status = 'accepted'
		ORDER BY updated_at, id
	`, postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team: %w", err)
	}
	defer rows.Close()

	team.MemberIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		team.MemberIDs = append(team.MemberIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}
	return team, nil
}

func (r *PostingRepository) guarded(ctx context.Context, res sql.Result, actorID, id string) error {
	ok, err := checkAffected(res)
	if err != nil || ok {
		return err
	}
	var status string
	return missingOrStale(r.db.QueryRowContext(ctx,
		`SELECT status FROM postings WHERE id = ? AND creator_id = ?`, id, actorID).Scan(&status))
}

func getPosting(ctx context.Context, q querier, id string) (*posting.Posting, error) {
	query := `
		SELECT id, creator_id, title, description, category, mode, location,
			team_size_min, team_size_max, hours_per_week, experience_level,
			auto_accept, status, expires_at, embedding, created_at, updated_at
		FROM postings
		WHERE id = ?
	`
	var (
		p         posting.Posting
		embedding *string
	)
	err := q.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.CreatorID,
		&p.Title,
		&p.Description,
		&p.Category,
		&p.Mode,
		&p.Location,
		&p.TeamSizeMin,
		&p.TeamSizeMax,
		&p.HoursPerWeek,
		&p.ExperienceLevel,
		&p.AutoAccept,
		&p.Status,
		&p.ExpiresAt,
		&embedding,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	if p.Embedding, err = scanVector(embedding); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT skill_id, min_level FROM posting_skills WHERE posting_id = ? ORDER BY skill_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query posting skills: %w", err)
	}
	defer rows.Close()

	p.RequiredSkills = []posting.RequiredSkill{}
	for rows.Next() {
		var sk posting.RequiredSkill
		if err := rows.Scan(&sk.SkillID, &sk.MinLevel); err != nil {
			return nil, fmt.Errorf("failed to scan posting skill: %w", err)
		}
		p.RequiredSkills = append(p.RequiredSkills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posting skill rows: %w", err)
	}
	return &p, nil
}
