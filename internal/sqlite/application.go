package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/repository"
)

const applicationColumns = `id, posting_id, applicant_id, status, message, created_at, updated_at`

// ApplicationRepository implements application.Repository for SQLite. Every
// change to team capacity runs in one transaction that counts the accepted
// seats before writing.
type ApplicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts an application. A second active application by the same
// profile to the same posting fails with repository.ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.PostingID, a.ApplicantID, a.Status, a.Message, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return writeError(err, "create application")
	}
	return nil
}

// Get retrieves an application by ID
func (r *ApplicationRepository) Get(ctx context.Context, id string) (*application.Application, error) {
	return getApplication(ctx, r.db, id)
}

// ListForPosting returns a posting's applications, oldest first.
func (r *ApplicationRepository) ListForPosting(ctx context.Context, postingID string) ([]application.Application, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE posting_id = ?
		ORDER BY created_at, id
	`, postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var list []application.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}
	return list, nil
}

// CountAccepted returns how many seats of a posting are taken.
func (r *ApplicationRepository) CountAccepted(ctx context.Context, postingID string) (int, error) {
	return countAccepted(ctx, r.db, postingID)
}

// UpdateStatus moves an application on behalf of its applicant or the posting creator.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, actorID, id string, from, to application.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE applications SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
			AND (applicant_id = ? OR posting_id IN (SELECT id FROM postings WHERE creator_id = ?))
	`, to, time.Now().UTC(), id, from, actorID, actorID)
	if err != nil {
		return writeError(err, "update application status")
	}
	ok, err := checkAffected(res)
	if err != nil || ok {
		return err
	}
	var status string
	return missingOrStale(r.db.QueryRowContext(ctx, `
		SELECT status FROM applications
		WHERE id = ? AND (applicant_id = ? OR posting_id IN (SELECT id FROM postings WHERE creator_id = ?))
	`, id, actorID, actorID).Scan(&status))
}

// Accept takes a seat for the application. The posting flips to filled when
// the last seat goes.
func (r *ApplicationRepository) Accept(ctx context.Context, req application.AcceptRequest) (*application.AcceptResult, error) {
	var result *application.AcceptResult
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		a, err := getApplication(ctx, tx, req.ApplicationID)
		if err != nil {
			return err
		}
		if a.Status != req.From {
			return repository.ErrConflict
		}

		seats, err := loadSeats(ctx, tx, a.PostingID)
		if err != nil {
			return err
		}
		if req.CreatorID != "" && seats.creatorID != req.CreatorID {
			return repository.ErrNotFound
		}
		if seats.status != "open" && seats.status != "filled" {
			return repository.ErrConflict
		}
		if seats.accepted >= seats.capacity {
			return repository.ErrCapacityReached
		}

		if err := setApplicationStatus(ctx, tx, a, application.StatusAccepted, req.Now); err != nil {
			return err
		}
		filled, err := fillIfFull(ctx, tx, seats, seats.accepted+1, req.Now)
		if err != nil {
			return err
		}
		result = &application.AcceptResult{Application: a, PostingFilled: filled}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Withdraw withdraws the application. When it held a seat, the oldest
// waitlisted application takes it if req.PromoteWaitlisted is set; with
// nobody waiting a filled posting reopens.
func (r *ApplicationRepository) Withdraw(ctx context.Context, req application.WithdrawRequest) (*application.WithdrawResult, error) {
	var result *application.WithdrawResult
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		a, err := getApplication(ctx, tx, req.ApplicationID)
		if err != nil {
			return err
		}
		if a.ApplicantID != req.ApplicantID {
			return repository.ErrNotFound
		}
		if a.Status != req.From {
			return repository.ErrConflict
		}

		held := a.Status == application.StatusAccepted
		if err := setApplicationStatus(ctx, tx, a, application.StatusWithdrawn, req.Now); err != nil {
			return err
		}
		result = &application.WithdrawResult{Application: a}
		if !held {
			return nil
		}

		seats, err := loadSeats(ctx, tx, a.PostingID)
		if err != nil {
			return err
		}
		next, err := oldestWaitlisted(ctx, tx, a.PostingID)
		if err != nil {
			return err
		}

		switch {
		case next != nil && req.PromoteWaitlisted:
			if err := setApplicationStatus(ctx, tx, next, application.StatusAccepted, req.Now); err != nil {
				return err
			}
			result.Promoted = next
		case next != nil:
			// The posting stays filled while the creator decides. If the
			// waitlist is rejected instead, ReconcileStatuses reopens it.
			result.WaitlistPending = true
		case seats.status == "filled":
			_, err := tx.ExecContext(ctx,
				`UPDATE postings SET status = 'open', updated_at = ? WHERE id = ? AND status = 'filled'`,
				req.Now, a.PostingID)
			if err != nil {
				return fmt.Errorf("failed to reopen posting: %w", err)
			}
			result.PostingReopened = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PromoteNext accepts the oldest waitlisted application of a posting when a
// seat is free.
func (r *ApplicationRepository) PromoteNext(ctx context.Context, postingID string, now time.Time) (*application.Application, error) {
	var promoted *application.Application
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		seats, err := loadSeats(ctx, tx, postingID)
		if err != nil {
			return err
		}
		if seats.status != "open" && seats.status != "filled" {
			return nil
		}
		if seats.accepted >= seats.capacity {
			return nil
		}
		next, err := oldestWaitlisted(ctx, tx, postingID)
		if err != nil || next == nil {
			return err
		}
		if err := setApplicationStatus(ctx, tx, next, application.StatusAccepted, now); err != nil {
			return err
		}
		if _, err := fillIfFull(ctx, tx, seats, seats.accepted+1, now); err != nil {
			return err
		}
		promoted = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// ListVacancies returns auto-accept postings with a free seat and at least
// one waitlisted application.
func (r *ApplicationRepository) ListVacancies(ctx context.Context) ([]application.Vacancy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, capacity, accepted, waiting FROM (
			SELECT p.id AS id,
				p.team_size_max AS capacity,
				(SELECT COUNT(*) FROM applications a WHERE a.posting_id = p.id AND a.status = 'accepted') AS accepted,
				(SELECT COUNT(*) FROM applications a WHERE a.posting_id = p.id AND a.status = 'waitlisted') AS waiting,
				p.created_at AS created_at
			FROM postings p
			WHERE p.auto_accept = 1 AND p.status IN ('open', 'filled')
		)
		WHERE accepted < capacity AND waiting > 0
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vacancies: %w", err)
	}
	defer rows.Close()

	var list []application.Vacancy
	for rows.Next() {
		var v application.Vacancy
		if err := rows.Scan(&v.PostingID, &v.Capacity, &v.Accepted, &v.Waiting); err != nil {
			return nil, fmt.Errorf("failed to scan vacancy: %w", err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vacancy rows: %w", err)
	}
	return list, nil
}

// ReconcileStatuses brings posting status back in line with the accepted
// count. A filled posting whose seat was freed while applicants waited stays
// filled until the creator decides; once nobody waits any more it reopens.
// An open posting at capacity becomes filled.
func (r *ApplicationRepository) ReconcileStatuses(ctx context.Context, now time.Time) (int, error) {
	changed := 0
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE postings SET status = 'open', updated_at = ?
			WHERE status = 'filled'
				AND (SELECT COUNT(*) FROM applications a WHERE a.posting_id = postings.id AND a.status = 'accepted') < team_size_max
				AND NOT EXISTS (SELECT 1 FROM applications a WHERE a.posting_id = postings.id AND a.status = 'waitlisted')
		`, now)
		if err != nil {
			return fmt.Errorf("failed to reopen postings: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		changed += int(n)

		res, err = tx.ExecContext(ctx, `
			UPDATE postings SET status = 'filled', updated_at = ?
			WHERE status = 'open'
				AND (SELECT COUNT(*) FROM applications a WHERE a.posting_id = postings.id AND a.status = 'accepted') >= team_size_max
		`, now)
		if err != nil {
			return fmt.Errorf("failed to fill postings: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		changed += int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

type seats struct {
	postingID string
	creatorID string
	status    string
	capacity  int
	accepted  int
}

func loadSeats(ctx context.Context, q querier, postingID string) (*seats, error) {
	s := &seats{postingID: postingID}
	err := q.QueryRowContext(ctx,
		`SELECT creator_id, status, team_size_max FROM postings WHERE id = ?`, postingID,
	).Scan(&s.creatorID, &s.status, &s.capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load posting: %w", err)
	}
	if s.accepted, err = countAccepted(ctx, q, postingID); err != nil {
		return nil, err
	}
	return s, nil
}

func fillIfFull(ctx context.Context, q querier, s *seats, accepted int, now time.Time) (bool, error) {
	if accepted < s.capacity || s.status != "open" {
		return false, nil
	}
	_, err := q.ExecContext(ctx,
		`UPDATE postings SET status = 'filled', updated_at = ? WHERE id = ? AND status = 'open'`,
		now, s.postingID)
	if err != nil {
		return false, fmt.Errorf("failed to fill posting: %w", err)
	}
	return true, nil
}

func countAccepted(ctx context.Context, q querier, postingID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE posting_id = ? AND status = 'accepted'`, postingID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count accepted applications: %w", err)
	}
	return n, nil
}

func oldestWaitlisted(ctx context.Context, q querier, postingID string) (*application.Application, error) {
	a, err := scanApplication(q.QueryRowContext(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE posting_id = ? AND status = 'waitlisted'
		ORDER BY created_at, id
		LIMIT 1
	`, postingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func setApplicationStatus(ctx context.Context, q querier, a *application.Application, to application.Status, now time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE applications SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, now, a.ID, a.Status)
	if err != nil {
		return writeError(err, "update application status")
	}
	ok, err := checkAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrConflict
	}
	a.Status = to
	a.UpdatedAt = now
	return nil
}

func getApplication(ctx context.Context, q querier, id string) (*application.Application, error) {
	a, err := scanApplication(q.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return a, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*application.Application, error) {
	var a application.Application
	err := row.Scan(&a.ID, &a.PostingID, &a.ApplicantID, &a.Status, &a.Message, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}
	return &a, nil
}
