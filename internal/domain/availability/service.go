package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meshit/meshit/internal/repository"
)

// Service reconciles availability across the people on a posting.
type Service struct {
	windows    WindowRepository
	busy       BusyBlockRepository
	teams      TeamRepository
	zones      TimezoneRepository
	normalizer Normalizer
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new availability service.
func NewService(
	windows WindowRepository,
	busy BusyBlockRepository,
	teams TeamRepository,
	zones TimezoneRepository,
	normalizer Normalizer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		windows:    windows,
		busy:       busy,
		teams:      teams,
		zones:      zones,
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the clock that anchors the this_week scope.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ParseScope maps request text to a Scope; empty means recurring.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeRecurring:
		return ScopeRecurring, nil
	case ScopeThisWeek:
		return ScopeThisWeek, nil
	default:
		return "", fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, s)
	}
}

// CommonAvailability returns the weekly slots shared by every team member of
// a posting, minus their calendar busy blocks. An empty result means no
// common time.
func (s *Service) CommonAvailability(ctx context.Context, actorID, postingID string, scope Scope) ([]CommonWindow, error) {
	team, err := s.teams.Team(ctx, postingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("loading team: %w", err)
	}
	if !team.Has(actorID) {
		return nil, ErrForbidden
	}

	now := s.now()
	members := team.Everyone()
	parties := make([][]Interval, 0, len(members)+1)
	var busy []Interval

	for _, memberID := range members {
		loc := s.location(ctx, memberID)
		windows, err := s.windows.ListByOwner(ctx, OwnerProfile, memberID)
		if err != nil {
			return nil, fmt.Errorf("loading windows for %s: %w", memberID, err)
		}
		ivs, err := s.normalizeParty(memberID, windows, NormalizeOptions{Location: loc, Scope: scope, Now: now})
		if err != nil {
			return nil, fmt.Errorf("normalizing windows for %s: %w", memberID, err)
		}
		parties = append(parties, ivs)

		blocks, err := s.busy.ListByProfile(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("loading busy blocks for %s: %w", memberID, err)
		}
		for _, b := range blocks {
			busy = append(busy, b.Range)
		}
	}

	postingWindows, err := s.windows.ListByOwner(ctx, OwnerPosting, postingID)
	if err != nil {
		return nil, fmt.Errorf("loading posting windows: %w", err)
	}
	if len(postingWindows) > 0 {
		ivs, err := s.normalizeParty(postingID, postingWindows, NormalizeOptions{
			Location: s.location(ctx, team.CreatorID),
			Scope:    scope,
			Now:      now,
		})
		if err != nil {
			return nil, fmt.Errorf("normalizing posting windows: %w", err)
		}
		parties = append(parties, ivs)
	}

	common := Subtract(Common(parties...), busy)
	s.logger.Debug("common availability computed",
		"posting_id", postingID,
		"parties", len(parties),
		"busy_blocks", len(busy),
		"windows", len(common),
	)
	return ToCommonWindows(common), nil
}

// ProfileWindows lists a profile's declared windows.
func (s *Service) ProfileWindows(ctx context.Context, profileID string) ([]Window, error) {
	windows, err := s.windows.ListByOwner(ctx, OwnerProfile, profileID)
	if err != nil {
		return nil, fmt.Errorf("loading windows: %w", err)
	}
	return windows, nil
}

// SetProfileWindows replaces the actor's declared windows.
func (s *Service) SetProfileWindows(ctx context.Context, actorID string, windows []Window) ([]Window, error) {
	prepared, err := s.prepare(OwnerProfile, actorID, windows, s.location(ctx, actorID))
	if err != nil {
		return nil, err
	}
	if err := s.windows.ReplaceForOwner(ctx, OwnerProfile, actorID, prepared); err != nil {
		return nil, fmt.Errorf("saving windows: %w", err)
	}
	return prepared, nil
}

// SetQuickAvailability replaces the actor's windows with a day/bucket selection.
func (s *Service) SetQuickAvailability(ctx context.Context, actorID string, days []int, buckets []Bucket) ([]Window, error) {
	ivs, err := s.normalizer.FromBuckets(days, buckets)
	if err != nil {
		return nil, err
	}
	slots := ToCommonWindows(Merge(ivs))
	windows := make([]Window, 0, len(slots))
	for _, slot := range slots {
		windows = append(windows, Window{
			Kind:         KindRecurring,
			DayOfWeek:    slot.DayOfWeek,
			StartMinutes: slot.StartMinutes,
			EndMinutes:   slot.EndMinutes,
		})
	}
	return s.SetProfileWindows(ctx, actorID, windows)
}

// SetPostingWindows replaces a posting's windows. Only the creator may do this.
func (s *Service) SetPostingWindows(ctx context.Context, actorID, postingID string, windows []Window) ([]Window, error) {
	team, err := s.teams.Team(ctx, postingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("loading team: %w", err)
	}
	if team.CreatorID != actorID {
		return nil, ErrForbidden
	}

	prepared, err := s.prepare(OwnerPosting, postingID, windows, s.location(ctx, actorID))
	if err != nil {
		return nil, err
	}
	if err := s.windows.ReplaceForOwner(ctx, OwnerPosting, postingID, prepared); err != nil {
		return nil, fmt.Errorf("saving posting windows: %w", err)
	}
	return prepared, nil
}

// SyncBusyBlocks replaces every busy block of a calendar connection with the
// given canonical ranges. Malformed ranges are logged and discarded.
func (s *Service) SyncBusyBlocks(ctx context.Context, actorID, connectionID string, ranges []string) (*SyncResult, error) {
	if connectionID == "" {
		return nil, fmt.Errorf("%w: connection id is required", ErrInvalidInput)
	}

	ivs, errs := ParseRanges(ranges)
	for _, err := range errs {
		s.logger.Warn("discarding busy block", "connection_id", connectionID, "error", err)
	}

	now := s.now().UTC()
	blocks := make([]BusyBlock, 0, len(ivs))
	for _, iv := range ivs {
		blocks = append(blocks, BusyBlock{
			ID:           uuid.NewString(),
			ProfileID:    actorID,
			ConnectionID: connectionID,
			Range:        iv,
			CreatedAt:    now,
		})
	}

	if err := s.busy.ReplaceForConnection(ctx, actorID, connectionID, blocks); err != nil {
		return nil, fmt.Errorf("replacing busy blocks: %w", err)
	}
	return &SyncResult{Stored: len(blocks), Discarded: len(errs)}, nil
}

func (s *Service) prepare(owner OwnerKind, ownerID string, windows []Window, loc *time.Location) ([]Window, error) {
	now := s.now().UTC()
	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Kind == "" {
			w.Kind = KindRecurring
		}
		if err := s.normalizer.Validate(w, loc); err != nil {
			return nil, err
		}
		w.ID = uuid.NewString()
		w.OwnerKind = owner
		w.OwnerID = ownerID
		w.CreatedAt = now
		if w.Kind == KindSpecific {
			w.StartsAt = w.StartsAt.UTC()
			w.EndsAt = w.EndsAt.UTC()
			w.Date = w.StartsAt.In(loc).Format(time.DateOnly)
		}
		out = append(out, w)
	}
	return out, nil
}

// normalizeParty normalizes one party's stored windows. A window that no
// longer fits the owner's clock (a timezone change can push a specific window
// across midnight) is skipped and logged instead of failing the whole team.
func (s *Service) normalizeParty(ownerID string, windows []Window, opts NormalizeOptions) ([]Interval, error) {
	var out []Interval
	for _, w := range windows {
		ivs, err := s.normalizer.Normalize([]Window{w}, opts)
		if errors.Is(err, ErrInvalidWindow) {
			s.logger.Warn("skipping stored window", "owner_id", ownerID, "window_id", w.ID, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ivs...)
	}
	return Merge(out), nil
}

func (s *Service) location(ctx context.Context, profileID string) *time.Location {
	tz, err := s.zones.Timezone(ctx, profileID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("timezone lookup failed", "profile_id", profileID, "error", err)
		}
		return time.UTC
	}
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.logger.Warn("unknown timezone", "profile_id", profileID, "timezone", tz, "error", err)
		return time.UTC
	}
	return loc
}
