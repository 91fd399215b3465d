package notification

import (
	"context"

	"github.com/meshit/meshit/internal/domain/profile"
)

// Repository provides persistence operations for notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, profileID string, opts ListOptions) ([]Notification, error)
	MarkRead(ctx context.Context, profileID, id string) error
}

// PrefsReader resolves a profile's notification preferences.
type PrefsReader interface {
	NotificationPrefs(ctx context.Context, profileID string) (profile.NotificationPrefs, error)
}
