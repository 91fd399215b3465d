package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meshit/meshit/internal/domain/availability"
)

// WindowRepository implements availability.WindowRepository for SQLite
type WindowRepository struct {
	db *DB
}

// NewWindowRepository creates a new WindowRepository
func NewWindowRepository(db *DB) *WindowRepository {
	return &WindowRepository{db: db}
}

// ListByOwner returns every window of a profile or posting.
func (r *WindowRepository) ListByOwner(ctx context.Context, owner availability.OwnerKind, ownerID string) ([]availability.Window, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_kind, owner_id, kind, day_of_week, start_minutes, end_minutes,
			date, starts_at, ends_at, created_at
		FROM availability_windows
		WHERE owner_kind = ? AND owner_id = ?
		ORDER BY kind, day_of_week, start_minutes, date, id
	`, owner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query windows: %w", err)
	}
	defer rows.Close()

	var windows []availability.Window
	for rows.Next() {
		var (
			w              availability.Window
			startsAt, ends sql.NullTime
		)
		err := rows.Scan(
			&w.ID,
			&w.OwnerKind,
			&w.OwnerID,
			&w.Kind,
			&w.DayOfWeek,
			&w.StartMinutes,
			&w.EndMinutes,
			&w.Date,
			&startsAt,
			&ends,
			&w.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		if startsAt.Valid {
			w.StartsAt = startsAt.Time.UTC()
		}
		if ends.Valid {
			w.EndsAt = ends.Time.UTC()
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating window rows: %w", err)
	}
	return windows, nil
}

// ReplaceForOwner swaps the owner's windows for the given set.
func (r *WindowRepository) ReplaceForOwner(ctx context.Context, owner availability.OwnerKind, ownerID string, windows []availability.Window) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM availability_windows WHERE owner_kind = ? AND owner_id = ?`, owner, ownerID)
		if err != nil {
			return fmt.Errorf("failed to clear windows: %w", err)
		}

		for i := range windows {
			w := &windows[i]
			if w.ID == "" {
				w.ID = uuid.NewString()
			}
			if w.CreatedAt.IsZero() {
				w.CreatedAt = time.Now().UTC()
			}
			w.OwnerKind = owner
			w.OwnerID = ownerID

			_, err := tx.ExecContext(ctx, `
				INSERT INTO availability_windows (
					id, owner_kind, owner_id, kind, day_of_week, start_minutes, end_minutes,
					date, starts_at, ends_at, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				w.ID,
				w.OwnerKind,
				w.OwnerID,
				w.Kind,
				w.DayOfWeek,
				w.StartMinutes,
				w.EndMinutes,
				w.Date,
				nullTime(w.StartsAt),
				nullTime(w.EndsAt),
				w.CreatedAt,
			)
			if err != nil {
				return writeError(err, "insert window")
			}
		}
		return nil
	})
}

// BusyBlockRepository implements availability.BusyBlockRepository for SQLite
type BusyBlockRepository struct {
	db *DB
}

// NewBusyBlockRepository creates a new BusyBlockRepository
func NewBusyBlockRepository(db *DB) *BusyBlockRepository {
	return &BusyBlockRepository{db: db}
}

// ReplaceForConnection swaps every block a calendar connection synced before.
func (r *BusyBlockRepository) ReplaceForConnection(ctx context.Context, profileID, connectionID string, blocks []availability.BusyBlock) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM busy_blocks WHERE profile_id = ? AND connection_id = ?`, profileID, connectionID)
		if err != nil {
			return fmt.Errorf("failed to clear busy blocks: %w", err)
		}

		for i := range blocks {
			b := &blocks[i]
			if b.ID == "" {
				b.ID = uuid.NewString()
			}
			if b.CreatedAt.IsZero() {
				b.CreatedAt = time.Now().UTC()
			}
			b.ProfileID = profileID
			b.ConnectionID = connectionID

			_, err := tx.ExecContext(ctx, `
				INSERT INTO busy_blocks (id, profile_id, connection_id, start_minute, end_minute, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, b.ID, b.ProfileID, b.ConnectionID, b.Range.Start, b.Range.End, b.CreatedAt)
			if err != nil {
				return writeError(err, "insert busy block")
			}
		}
		return nil
	})
}

// ListByProfile returns every busy block of a profile across its connections.
func (r *BusyBlockRepository) ListByProfile(ctx context.Context, profileID string) ([]availability.BusyBlock, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, profile_id, connection_id, start_minute, end_minute, created_at
		FROM busy_blocks
		WHERE profile_id = ?
		ORDER BY start_minute, id
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query busy blocks: %w", err)
	}
	defer rows.Close()

	var blocks []availability.BusyBlock
	for rows.Next() {
		var b availability.BusyBlock
		if err := rows.Scan(&b.ID, &b.ProfileID, &b.ConnectionID, &b.Range.Start, &b.Range.End, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan busy block: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating busy block rows: %w", err)
	}
	return blocks, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
