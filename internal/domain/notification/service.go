package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/repository"
)

// Service handles in-app notifications.
type Service struct {
	repo   Repository
	prefs  PrefsReader
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new notification service. prefs may be nil, in which
// case every notification is delivered.
func NewService(repo Repository, prefs PrefsReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, prefs: prefs, logger: logger, now: time.Now}
}

// Notify stores n unless the recipient muted its category.
func (s *Service) Notify(ctx context.Context, n Notification) error {
	if n.ProfileID == "" || n.Type == "" {
		return ErrInvalidInput
	}

	allowed, err := s.allowed(ctx, n.ProfileID, n.Type.Category())
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.Debug("notification muted", "profile_id", n.ProfileID, "type", n.Type)
		return nil
	}

	n.ID = uuid.NewString()
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		return fmt.Errorf("storing notification: %w", err)
	}
	return nil
}

// List returns the actor's notifications, newest first.
func (s *Service) List(ctx context.Context, actorID string, opts ListOptions) ([]Notification, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	list, err := s.repo.List(ctx, actorID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *Service) MarkRead(ctx context.Context, actorID, id string) error {
	if err := s.repo.MarkRead(ctx, actorID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

func (s *Service) allowed(ctx context.Context, profileID string, category Category) (bool, error) {
	if s.prefs == nil {
		return true, nil
	}
	prefs, err := s.prefs.NotificationPrefs(ctx, profileID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return false, fmt.Errorf("loading notification preferences: %w", err)
		}
		prefs = profile.DefaultNotificationPrefs
	}
	switch category {
	case CategoryMatches:
		return prefs.Matches, nil
	case CategoryMeetings:
		return prefs.Meetings, nil
	default:
		return prefs.Applications, nil
	}
}
