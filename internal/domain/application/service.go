package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/events"
	"github.com/meshit/meshit/internal/repository"
)

// MaxMessageLength bounds the free-text note sent with an application.
const MaxMessageLength = 2000

// Service handles the application lifecycle and waitlist promotion.
type Service struct {
	repo     Repository
	postings PostingReader
	outbox   Outbox
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new application service. outbox may be nil.
func NewService(repo Repository, postings PostingReader, outbox Outbox, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if outbox == nil {
		outbox = (*notification.Outbox)(nil)
	}
	return &Service{repo: repo, postings: postings, outbox: outbox, logger: logger, now: time.Now}
}

// Submit applies the actor to a posting. A posting at capacity waitlists the
// application; an auto-accept posting with a free seat accepts it at once.
func (s *Service) Submit(ctx context.Context, actorID, postingID, message string) (*Application, error) {
	if len(message) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message longer than %d characters", ErrInvalidInput, MaxMessageLength)
	}
	p, err := s.posting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID == actorID {
		return nil, fmt.Errorf("%w: cannot apply to your own posting", ErrInvalidInput)
	}
	if p.Status != posting.StatusOpen && p.Status != posting.StatusFilled {
		return nil, fmt.Errorf("%w: posting is %s", ErrPostingNotOpen, p.Status)
	}

	accepted, err := s.repo.CountAccepted(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("counting accepted applications: %w", err)
	}

	now := s.now().UTC()
	a := &Application{
		ID:          uuid.NewString(),
		PostingID:   postingID,
		ApplicantID: actorID,
		Status:      StatusPending,
		Message:     strings.TrimSpace(message),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if accepted >= p.TeamSizeMax || p.Status == posting.StatusFilled {
		a.Status = StatusWaitlisted
	}

	if err := s.repo.Create(ctx, a); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicate
		case errors.Is(err, repository.ErrForeignKeyViolation):
			return nil, fmt.Errorf("%w: unknown applicant profile", ErrInvalidInput)
		default:
			return nil, fmt.Errorf("creating application: %w", err)
		}
	}

	if a.Status == StatusPending && p.AutoAccept {
		res, err := s.repo.Accept(ctx, AcceptRequest{ApplicationID: a.ID, From: StatusPending, Now: now})
		switch {
		case err == nil:
			a = res.Application
			s.announceFilled(p, res.PostingFilled)
		case errors.Is(err, repository.ErrCapacityReached):
			// Lost the last seat to a concurrent accept.
			if err := s.repo.UpdateStatus(ctx, actorID, a.ID, StatusPending, StatusWaitlisted); err != nil {
				return nil, s.mapWriteError(err, "waitlisting application")
			}
			a.Status = StatusWaitlisted
		default:
			return nil, s.mapWriteError(err, "auto-accepting application")
		}
	}

	s.logger.Info("application submitted", "application_id", a.ID, "posting_id", postingID, "status", a.Status)
	s.notifySubmitted(p, a)
	s.publish(a)
	return a, nil
}

// Decide accepts or rejects an application. Only the posting creator may
// decide, and accepting fails with ErrPostingFull once the team is full.
func (s *Service) Decide(ctx context.Context, actorID, applicationID string, to Status) (*Application, error) {
	if to != StatusAccepted && to != StatusRejected {
		return nil, fmt.Errorf("%w: status must be accepted or rejected, got %q", ErrInvalidInput, to)
	}

	a, err := s.get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	p, err := s.posting(ctx, a.PostingID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != actorID {
		return nil, ErrForbidden
	}
	if err := ValidateTransition(a.Status, to); err != nil {
		return nil, err
	}

	if to == StatusAccepted {
		res, err := s.repo.Accept(ctx, AcceptRequest{
			ApplicationID: a.ID,
			CreatorID:     actorID,
			From:          a.Status,
			Now:           s.now().UTC(),
		})
		if err != nil {
			if errors.Is(err, repository.ErrCapacityReached) {
				return nil, ErrPostingFull
			}
			return nil, s.mapWriteError(err, "accepting application")
		}
		a = res.Application
		s.announceFilled(p, res.PostingFilled)
	} else {
		if err := s.repo.UpdateStatus(ctx, actorID, a.ID, a.Status, to); err != nil {
			return nil, s.mapWriteError(err, "rejecting application")
		}
		a.Status = to
		a.UpdatedAt = s.now().UTC()
	}

	typ, title := notification.TypeApplicationRejected, "Your application to "+p.Title+" was declined"
	if to == StatusAccepted {
		typ, title = notification.TypeApplicationAccepted, "You joined "+p.Title
	}
	s.notify(a.ApplicantID, typ, title, p, a)
	s.publish(a)
	return a, nil
}

// Withdraw pulls the actor's application. When an accepted applicant leaves,
// the freed seat goes to the longest-waiting applicant on auto-accept
// postings, and a filled posting with nobody waiting reopens. The withdrawal
// and its consequences commit together.
func (s *Service) Withdraw(ctx context.Context, actorID, applicationID string) (*Application, error) {
	a, err := s.get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.ApplicantID != actorID {
		return nil, ErrForbidden
	}
	if err := ValidateTransition(a.Status, StatusWithdrawn); err != nil {
		return nil, err
	}
	p, err := s.posting(ctx, a.PostingID)
	if err != nil {
		return nil, err
	}

	res, err := s.repo.Withdraw(ctx, WithdrawRequest{
		ApplicationID:     a.ID,
		ApplicantID:       actorID,
		From:              a.Status,
		PromoteWaitlisted: p.AutoAccept,
		Now:               s.now().UTC(),
	})
	if err != nil {
		return nil, s.mapWriteError(err, "withdrawing application")
	}

	s.logger.Info("application withdrawn",
		"application_id", a.ID,
		"posting_id", p.ID,
		"was", a.Status,
		"promoted", res.Promoted != nil,
		"reopened", res.PostingReopened,
	)

	s.notify(p.CreatorID, notification.TypeApplicationWithdrawn, "An applicant left "+p.Title, p, res.Application)
	s.publish(res.Application)
	if res.Promoted != nil {
		s.notify(res.Promoted.ApplicantID, notification.TypeApplicationPromoted, "A seat opened up: you joined "+p.Title, p, res.Promoted)
		s.publish(res.Promoted)
	}
	if res.WaitlistPending {
		s.notify(p.CreatorID, notification.TypeVacancyOpened, "A seat opened on "+p.Title+" and applicants are waiting", p, nil)
	}
	if res.PostingReopened {
		s.publishPosting(p.ID, posting.StatusOpen)
	}
	return res.Application, nil
}

// Get returns an application visible to its applicant or the posting creator.
func (s *Service) Get(ctx context.Context, actorID, applicationID string) (*Application, error) {
	a, err := s.get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.ApplicantID == actorID {
		return a, nil
	}
	p, err := s.posting(ctx, a.PostingID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != actorID {
		return nil, ErrForbidden
	}
	return a, nil
}

// ListForPosting returns every application of a posting, oldest first. Only
// the posting creator may list them.
func (s *Service) ListForPosting(ctx context.Context, actorID, postingID string) ([]Application, error) {
	p, err := s.posting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != actorID {
		return nil, ErrForbidden
	}
	list, err := s.repo.ListForPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return list, nil
}

// RescanVacancies promotes waitlisted applicants into seats that are free on
// auto-accept postings, then reconciles posting status with the seats taken.
// It repairs anything a failed withdrawal or a rejected waitlist left behind
// and returns the number of rows changed.
func (s *Service) RescanVacancies(ctx context.Context) (int, error) {
	vacancies, err := s.repo.ListVacancies(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing vacancies: %w", err)
	}

	promoted := 0
	for _, v := range vacancies {
		for seat := v.Accepted; seat < v.Capacity; seat++ {
			a, err := s.repo.PromoteNext(ctx, v.PostingID, s.now().UTC())
			if err != nil {
				s.logger.Warn("waitlist promotion failed", "posting_id", v.PostingID, "error", err)
				break
			}
			if a == nil {
				break
			}
			promoted++
			s.logger.Info("waitlisted application promoted", "application_id", a.ID, "posting_id", v.PostingID)

			if p, err := s.postings.Get(ctx, v.PostingID); err == nil {
				s.notify(a.ApplicantID, notification.TypeApplicationPromoted, "A seat opened up: you joined "+p.Title, p, a)
			}
			s.publish(a)
		}
	}

	reconciled, err := s.repo.ReconcileStatuses(ctx, s.now().UTC())
	if err != nil {
		return promoted, fmt.Errorf("reconciling posting status: %w", err)
	}
	if reconciled > 0 {
		s.logger.Info("posting status reconciled", "postings", reconciled)
	}
	return promoted + reconciled, nil
}

func (s *Service) get(ctx context.Context, id string) (*Application, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("loading application: %w", err)
	}
	return a, nil
}

func (s *Service) posting(ctx context.Context, id string) (*posting.Posting, error) {
	p, err := s.postings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("loading posting: %w", err)
	}
	return p, nil
}

func (s *Service) mapWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrApplicationNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

func (s *Service) notifySubmitted(p *posting.Posting, a *Application) {
	switch a.Status {
	case StatusAccepted:
		s.notify(a.ApplicantID, notification.TypeApplicationAccepted, "You joined "+p.Title, p, a)
	case StatusWaitlisted:
		s.notify(a.ApplicantID, notification.TypeApplicationWaitlisted, p.Title+" is full: you are on the waitlist", p, a)
	}
	s.notify(p.CreatorID, notification.TypeApplicationReceived, "New application to "+p.Title, p, a)
}

func (s *Service) notify(profileID string, typ notification.Type, title string, p *posting.Posting, a *Application) {
	postingID := p.ID
	n := notification.Notification{
		ProfileID: profileID,
		Type:      typ,
		Title:     title,
		PostingID: &postingID,
	}
	if a != nil {
		applicationID := a.ID
		n.ApplicationID = &applicationID
	}
	s.outbox.Send(n)
}

func (s *Service) publish(a *Application) {
	s.outbox.Publish(events.Event{
		Type:          events.TypeApplicationStatus,
		PostingID:     a.PostingID,
		ApplicationID: a.ID,
		ProfileID:     a.ApplicantID,
		Status:        string(a.Status),
		At:            a.UpdatedAt,
	})
}

func (s *Service) announceFilled(p *posting.Posting, filled bool) {
	if filled {
		s.logger.Info("posting filled", "posting_id", p.ID)
		s.publishPosting(p.ID, posting.StatusFilled)
	}
}

func (s *Service) publishPosting(postingID string, status posting.Status) {
	s.outbox.Publish(events.Event{
		Type:      events.TypePostingStatus,
		PostingID: postingID,
		Status:    string(status),
		At:        s.now().UTC(),
	})
}
