package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meshit/meshit/internal/domain/meeting"
	"github.com/meshit/meshit/internal/repository"
)

const proposalColumns = `id, posting_id, proposer_id, starts_at, ends_at, status, created_at, updated_at`

// MeetingRepository implements meeting.Repository for SQLite
type MeetingRepository struct {
	db *DB
}

// NewMeetingRepository creates a new MeetingRepository
func NewMeetingRepository(db *DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// CreateCapped inserts a proposal unless the posting already has max open ones.
func (r *MeetingRepository) CreateCapped(ctx context.Context, p *meeting.Proposal, max int) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		var open int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM meeting_proposals WHERE posting_id = ? AND status = 'proposed'`, p.PostingID,
		).Scan(&open)
		if err != nil {
			return fmt.Errorf("failed to count proposals: %w", err)
		}
		if open >= max {
			return repository.ErrCapacityReached
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO meeting_proposals (`+proposalColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.PostingID, p.ProposerID, p.StartsAt.UTC(), p.EndsAt.UTC(), p.Status, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return writeError(err, "create proposal")
		}
		return nil
	})
}

// Get retrieves a proposal with its responses
func (r *MeetingRepository) Get(ctx context.Context, id string) (*meeting.Proposal, error) {
	list, err := r.query(ctx, `SELECT `+proposalColumns+` FROM meeting_proposals WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

// ListForPosting returns a posting's proposals in start order.
func (r *MeetingRepository) ListForPosting(ctx context.Context, postingID string) ([]meeting.Proposal, error) {
	return r.query(ctx, `
		SELECT `+proposalColumns+` FROM meeting_proposals
		WHERE posting_id = ?
		ORDER BY starts_at, id
	`, postingID)
}

// Respond records a member's answer, replacing an earlier one.
func (r *MeetingRepository) Respond(ctx context.Context, proposalID string, resp meeting.Response) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meeting_responses (proposal_id, profile_id, available, responded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(proposal_id, profile_id) DO UPDATE SET
			available = excluded.available,
			responded_at = excluded.responded_at
	`, proposalID, resp.ProfileID, resp.Available, resp.RespondedAt.UTC())
	if isForeignKeyViolation(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to record response: %w", err)
	}
	return nil
}

// UpdateStatus moves a proposal from one status to another.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, from, to meeting.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE meeting_proposals SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update proposal status: %w", err)
	}
	ok, err := checkAffected(res)
	if err != nil || ok {
		return err
	}
	var status string
	return missingOrStale(r.db.QueryRowContext(ctx,
		`SELECT status FROM meeting_proposals WHERE id = ?`, id).Scan(&status))
}

func (r *MeetingRepository) query(ctx context.Context, query string, args ...any) ([]meeting.Proposal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	var (
		list  []meeting.Proposal
		index = map[string]int{}
	)
	for rows.Next() {
		var p meeting.Proposal
		err := rows.Scan(&p.ID, &p.PostingID, &p.ProposerID, &p.StartsAt, &p.EndsAt, &p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		p.StartsAt, p.EndsAt = p.StartsAt.UTC(), p.EndsAt.UTC()
		p.Responses = []meeting.Response{}
		index[p.ID] = len(list)
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposal rows: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to close proposal rows: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]any, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	respRows, err := r.db.QueryContext(ctx, `
		SELECT proposal_id, profile_id, available, responded_at FROM meeting_responses
		WHERE proposal_id IN (`+placeholders(len(ids))+`)
		ORDER BY responded_at, profile_id
	`, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer respRows.Close()
	for respRows.Next() {
		var (
			proposalID string
			resp       meeting.Response
		)
		if err := respRows.Scan(&proposalID, &resp.ProfileID, &resp.Available, &resp.RespondedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		i := index[proposalID]
		list[i].Responses = append(list[i].Responses, resp)
	}
	if err := respRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating response rows: %w", err)
	}
	return list, nil
}
