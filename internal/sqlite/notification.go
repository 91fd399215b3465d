package sqlite

import (
	"context"
	"fmt"

	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/repository"
)

// NotificationRepository implements notification.Repository for SQLite
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, profile_id, type, title, body, posting_id, application_id, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.ProfileID, n.Type, n.Title, n.Body, n.PostingID, n.ApplicationID, n.Read, n.CreatedAt)
	if err != nil {
		return writeError(err, "create notification")
	}
	return nil
}

// List returns a profile's notifications, newest first
func (r *NotificationRepository) List(ctx context.Context, profileID string, opts notification.ListOptions) ([]notification.Notification, error) {
	query := `
		SELECT id, profile_id, type, title, body, posting_id, application_id, read, created_at
		FROM notifications
		WHERE profile_id = ?
	`
	args := []any{profileID}
	if opts.UnreadOnly {
		query += " AND read = 0"
	}
	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var list []notification.Notification
	for rows.Next() {
		var n notification.Notification
		err := rows.Scan(&n.ID, &n.ProfileID, &n.Type, &n.Title, &n.Body, &n.PostingID, &n.ApplicationID, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return list, nil
}

// MarkRead flags one of the profile's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, profileID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND profile_id = ?`, id, profileID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
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
