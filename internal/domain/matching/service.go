package matching

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/events"
	"github.com/meshit/meshit/internal/repository"
)

// DefaultCandidateLimit caps how many profiles are scored per posting.
const DefaultCandidateLimit = 50

// Service handles match scoring, persistence and the match lifecycle.
type Service struct {
	repo       Repository
	postings   PostingReader
	candidates CandidateRepository
	similarity SimilarityRepository
	scorer     *Scorer
	outbox     Outbox
	limit      int
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new match service. outbox may be nil.
func NewService(
	repo Repository,
	postings PostingReader,
	candidates CandidateRepository,
	similarity SimilarityRepository,
	scorer *Scorer,
	outbox Outbox,
	limit int,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if outbox == nil {
		// A nil *notification.Outbox drops everything.
		outbox = (*notification.Outbox)(nil)
	}
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	return &Service{
		repo:       repo,
		postings:   postings,
		candidates: candidates,
		similarity: similarity,
		scorer:     scorer,
		outbox:     outbox,
		limit:      limit,
		logger:     logger,
		now:        time.Now,
	}
}

// MatchesForPosting returns ranked matches for a posting, scoring and storing
// candidates that have no match row yet. Existing rows are never rescored, so
// repeated calls return the same matches.
func (s *Service) MatchesForPosting(ctx context.Context, actorID, postingID string) ([]RankedMatch, error) {
	p, err := s.ownedPosting(ctx, actorID, postingID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListForPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		have[m.ProfileID] = struct{}{}
	}

	scored, err := s.score(ctx, p, have)
	if err != nil {
		return nil, err
	}

	created := 0
	for _, m := range scored {
		stored, isNew, err := s.repo.CreateIfAbsent(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("storing match: %w", err)
		}
		if isNew {
			created++
		}
		if _, ok := have[stored.ProfileID]; !ok {
			existing = append(existing, *stored)
			have[stored.ProfileID] = struct{}{}
		}
	}
	if created > 0 {
		s.logger.Info("matches created", "posting_id", postingID, "count", created)
	}
	return rank(existing), nil
}

// Regenerate rescores every candidate of a posting, overwriting stored scores.
// Match statuses are kept.
func (s *Service) Regenerate(ctx context.Context, actorID, postingID string) ([]RankedMatch, error) {
	p, err := s.ownedPosting(ctx, actorID, postingID)
	if err != nil {
		return nil, err
	}

	scored, err := s.score(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	for _, m := range scored {
		if _, err := s.repo.Upsert(ctx, m); err != nil {
			return nil, fmt.Errorf("storing match: %w", err)
		}
	}

	all, err := s.repo.ListForPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	s.logger.Info("matches regenerated", "posting_id", postingID, "scored", len(scored))
	return rank(all), nil
}

// MatchesForProfile returns the stored matches of the actor.
func (s *Service) MatchesForProfile(ctx context.Context, actorID string) ([]RankedMatch, error) {
	list, err := s.repo.ListForProfile(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	return rank(list), nil
}

// Apply records the matched profile's interest in the posting.
func (s *Service) Apply(ctx context.Context, actorID, matchID string) (*Match, error) {
	m, err := s.get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.ProfileID != actorID {
		return nil, ErrForbidden
	}
	if err := s.transition(ctx, actorID, m, StatusApplied); err != nil {
		return nil, err
	}

	if p, err := s.postings.Get(ctx, m.PostingID); err == nil {
		postingID := p.ID
		s.outbox.Send(notification.Notification{
			ProfileID: p.CreatorID,
			Type:      notification.TypeMatchApplied,
			Title:     "A match applied to " + p.Title,
			PostingID: &postingID,
		})
	} else {
		s.logger.Warn("match applied without posting", "match_id", m.ID, "error", err)
	}
	return m, nil
}

// Decide accepts or declines an applied match. Only the posting creator may decide.
func (s *Service) Decide(ctx context.Context, actorID, matchID string, to Status) (*Match, error) {
	if to != StatusAccepted && to != StatusDeclined {
		return nil, fmt.Errorf("%w: status must be accepted or declined, got %q", ErrInvalidInput, to)
	}

	m, err := s.get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	p, err := s.postings.Get(ctx, m.PostingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("loading posting: %w", err)
	}
	if p.CreatorID != actorID {
		return nil, ErrForbidden
	}
	if err := s.transition(ctx, actorID, m, to); err != nil {
		return nil, err
	}

	typ, title := notification.TypeMatchDeclined, "Your match for "+p.Title+" was declined"
	if to == StatusAccepted {
		typ, title = notification.TypeMatchAccepted, "Your match for "+p.Title+" was accepted"
	}
	postingID := p.ID
	s.outbox.Send(notification.Notification{ProfileID: m.ProfileID, Type: typ, Title: title, PostingID: &postingID})
	return m, nil
}

func (s *Service) transition(ctx context.Context, actorID string, m *Match, to Status) error {
	if err := ValidateTransition(m.Status, to); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, actorID, m.ID, m.Status, to); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrMatchNotFound
		case errors.Is(err, repository.ErrConflict):
			return ErrConflict
		default:
			return fmt.Errorf("updating match: %w", err)
		}
	}

	m.Status = to
	m.UpdatedAt = s.now().UTC()
	s.outbox.Publish(events.Event{
		Type:      events.TypeMatchStatus,
		PostingID: m.PostingID,
		MatchID:   m.ID,
		ProfileID: m.ProfileID,
		Status:    string(to),
		At:        m.UpdatedAt,
	})
	return nil
}

// score builds unsaved matches for the posting's candidates, skipping
// profiles in skip.
func (s *Service) score(ctx context.Context, p *posting.Posting, skip map[string]struct{}) ([]*Match, error) {
	candidates, err := s.candidates.Candidates(ctx, p.ID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := skip[c.ID]; !ok {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	sims, err := s.similarity.Similarities(ctx, p.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("computing similarity: %w", err)
	}
	req, err := s.scorer.Prepare(ctx, p)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	out := make([]*Match, 0, len(ids))
	for i := range candidates {
		c := &candidates[i]
		if _, ok := skip[c.ID]; ok {
			continue
		}
		sc := req.Score(c, sims[c.ID])
		out = append(out, &Match{
			ID:        uuid.NewString(),
			ProfileID: c.ID,
			PostingID: p.ID,
			Score:     sc.Overall,
			Breakdown: sc.Breakdown,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out, nil
}

func (s *Service) ownedPosting(ctx context.Context, actorID, postingID string) (*posting.Posting, error) {
	p, err := s.postings.Get(ctx, postingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("loading posting: %w", err)
	}
	if p.CreatorID != actorID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *Service) get(ctx context.Context, id string) (*Match, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("loading match: %w", err)
	}
	return m, nil
}

// rank orders matches by score, highest first, then by profile ID.
func rank(list []Match) []RankedMatch {
	slices.SortFunc(list, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ProfileID, b.ProfileID)
	})
	out := make([]RankedMatch, 0, len(list))
	for i := range list {
		out = append(out, ranked(&list[i]))
	}
	return out
}
