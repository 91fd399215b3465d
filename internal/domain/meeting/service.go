package meeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/events"
	"github.com/meshit/meshit/internal/repository"
)

const (
	// DefaultMaxProposals caps open proposals per posting.
	DefaultMaxProposals = 3
	// MaxDuration bounds a single meeting.
	MaxDuration = 8 * time.Hour
)

// Service handles meeting proposals for a posting's team.
type Service struct {
	repo   Repository
	teams  TeamRepository
	outbox Outbox
	max    int
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new meeting service. outbox may be nil.
func NewService(repo Repository, teams TeamRepository, outbox Outbox, maxProposals int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if outbox == nil {
		outbox = (*notification.Outbox)(nil)
	}
	if maxProposals <= 0 {
		maxProposals = DefaultMaxProposals
	}
	return &Service{repo: repo, teams: teams, outbox: outbox, max: maxProposals, logger: logger, now: time.Now}
}

// Propose suggests a meeting time to the rest of the team.
func (s *Service) Propose(ctx context.Context, actorID, postingID string, startsAt, endsAt time.Time) (*Proposal, error) {
	team, err := s.team(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if !team.Has(actorID) {
		return nil, ErrForbidden
	}

	now := s.now().UTC()
	switch {
	case !endsAt.After(startsAt):
		return nil, fmt.Errorf("%w: ends_at must be after starts_at", ErrInvalidInput)
	case !startsAt.After(now):
		return nil, fmt.Errorf("%w: starts_at must be in the future", ErrInvalidInput)
	case endsAt.Sub(startsAt) > MaxDuration:
		return nil, fmt.Errorf("%w: meeting longer than %s", ErrInvalidInput, MaxDuration)
	}

	p := &Proposal{
		ID:         uuid.NewString(),
		PostingID:  postingID,
		ProposerID: actorID,
		StartsAt:   startsAt.UTC(),
		EndsAt:     endsAt.UTC(),
		Status:     StatusProposed,
		Responses:  []Response{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateCapped(ctx, p, s.max); err != nil {
		if errors.Is(err, repository.ErrCapacityReached) {
			return nil, fmt.Errorf("%w: at most %d", ErrTooManyProposals, s.max)
		}
		return nil, fmt.Errorf("creating proposal: %w", err)
	}

	s.logger.Info("meeting proposed", "proposal_id", p.ID, "posting_id", postingID)
	s.notifyTeam(team, actorID, notification.TypeMeetingProposed, "New meeting time proposed for "+p.StartsAt.Format(time.RFC1123))
	s.publish(p)
	return p, nil
}

// Respond records whether the actor can make the proposed time.
func (s *Service) Respond(ctx context.Context, actorID, proposalID string, available bool) (*Proposal, error) {
	p, team, err := s.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !team.Has(actorID) {
		return nil, ErrForbidden
	}
	if p.Status != StatusProposed {
		return nil, fmt.Errorf("%w: meeting is %s and no longer takes responses", ErrInvalidTransition, p.Status)
	}

	r := Response{ProfileID: actorID, Available: available, RespondedAt: s.now().UTC()}
	if err := s.repo.Respond(ctx, p.ID, r); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("recording response: %w", err)
	}

	replaced := false
	for i := range p.Responses {
		if p.Responses[i].ProfileID == actorID {
			p.Responses[i] = r
			replaced = true
		}
	}
	if !replaced {
		p.Responses = append(p.Responses, r)
	}
	return p, nil
}

// Confirm fixes the proposed time. Only the proposer or the posting creator may confirm.
func (s *Service) Confirm(ctx context.Context, actorID, proposalID string) (*Proposal, error) {
	return s.settle(ctx, actorID, proposalID, StatusConfirmed)
}

// Cancel withdraws the proposal. Only the proposer or the posting creator may cancel.
func (s *Service) Cancel(ctx context.Context, actorID, proposalID string) (*Proposal, error) {
	return s.settle(ctx, actorID, proposalID, StatusCancelled)
}

// List returns the proposals of a posting to its team.
func (s *Service) List(ctx context.Context, actorID, postingID string) ([]Proposal, error) {
	team, err := s.team(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if !team.Has(actorID) {
		return nil, ErrForbidden
	}
	list, err := s.repo.ListForPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("listing proposals: %w", err)
	}
	return list, nil
}

func (s *Service) settle(ctx context.Context, actorID, proposalID string, to Status) (*Proposal, error) {
	p, team, err := s.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if actorID != p.ProposerID && actorID != team.CreatorID {
		return nil, ErrForbidden
	}
	if p.Status != StatusProposed {
		return nil, &TransitionError{From: p.Status, To: to}
	}

	if err := s.repo.UpdateStatus(ctx, p.ID, p.Status, to); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProposalNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrConflict
		default:
			return nil, fmt.Errorf("updating proposal: %w", err)
		}
	}
	p.Status = to
	p.UpdatedAt = s.now().UTC()

	typ, title := notification.TypeMeetingCancelled, "Meeting cancelled"
	if to == StatusConfirmed {
		typ, title = notification.TypeMeetingConfirmed, "Meeting confirmed for "+p.StartsAt.Format(time.RFC1123)
	}
	s.notifyTeam(team, actorID, typ, title)
	s.publish(p)
	return p, nil
}

func (s *Service) load(ctx context.Context, proposalID string) (*Proposal, *posting.Team, error) {
	p, err := s.repo.Get(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProposalNotFound
		}
		return nil, nil, fmt.Errorf("loading proposal: %w", err)
	}
	team, err := s.team(ctx, p.PostingID)
	if err != nil {
		return nil, nil, err
	}
	return p, team, nil
}

func (s *Service) team(ctx context.Context, postingID string) (*posting.Team, error) {
	team, err := s.teams.Team(ctx, postingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("loading team: %w", err)
	}
	return team, nil
}

func (s *Service) notifyTeam(team *posting.Team, actorID string, typ notification.Type, title string) {
	postingID := team.PostingID
	for _, member := range team.Everyone() {
		if member == actorID {
			continue
		}
		s.outbox.Send(notification.Notification{
			ProfileID: member,
			Type:      typ,
			Title:     title,
			PostingID: &postingID,
		})
	}
}

func (s *Service) publish(p *Proposal) {
	s.outbox.Publish(events.Event{
		Type:      events.TypeMeetingStatus,
		PostingID: p.PostingID,
		MeetingID: p.ID,
		ProfileID: p.ProposerID,
		Status:    string(p.Status),
		At:        p.UpdatedAt,
	})
}
