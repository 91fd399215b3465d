package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meshit/meshit/internal/embedding"
	"github.com/meshit/meshit/internal/repository"
)

// DefaultLifetime is how long a posting stays open when no expiry is given.
const DefaultLifetime = 30 * 24 * time.Hour

// Service handles posting business logic.
type Service struct {
	repo     Repository
	embedder Embedder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new posting service. embedder may be nil.
func NewService(repo Repository, embedder Embedder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:     repo,
		embedder: embedder,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateRequest describes a posting creation request.
type CreateRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Mode            Mode            `json:"mode"`
	Location        string          `json:"location"`
	RequiredSkills  []RequiredSkill `json:"required_skills"`
	TeamSizeMin     int             `json:"team_size_min"`
	TeamSizeMax     int             `json:"team_size_max"`
	HoursPerWeek    int             `json:"hours_per_week"`
	ExperienceLevel int             `json:"experience_level"`
	AutoAccept      bool            `json:"auto_accept"`
	ExpiresAt       *time.Time      `json:"expires_at"`
}

// Create creates an open posting owned by actorID.
func (s *Service) Create(ctx context.Context, actorID string, req CreateRequest) (*Posting, error) {
	now := s.now().UTC()
	if err := ValidateCreateInput(req, now); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeRemote
	}
	expiresAt := now.Add(DefaultLifetime)
	if req.ExpiresAt != nil {
		expiresAt = req.ExpiresAt.UTC()
	}

	p := &Posting{
		ID:              uuid.NewString(),
		CreatorID:       actorID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Category:        req.Category,
		Mode:            mode,
		Location:        req.Location,
		RequiredSkills:  req.RequiredSkills,
		TeamSizeMin:     req.TeamSizeMin,
		TeamSizeMax:     req.TeamSizeMax,
		HoursPerWeek:    req.HoursPerWeek,
		ExperienceLevel: req.ExperienceLevel,
		AutoAccept:      req.AutoAccept,
		Status:          StatusOpen,
		ExpiresAt:       expiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, invalidInput("unknown creator or skill reference")
		}
		return nil, fmt.Errorf("creating posting: %w", err)
	}

	s.enqueueEmbedding(p)
	return p, nil
}

// Get loads a posting by ID.
func (s *Service) Get(ctx context.Context, id string) (*Posting, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("loading posting: %w", err)
	}
	return p, nil
}

// Close stops a posting from accepting applications.
func (s *Service) Close(ctx context.Context, actorID, id string) (*Posting, error) {
	p, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(p.Status, StatusClosed); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, actorID, id, p.Status, StatusClosed); err != nil {
		return nil, mapWriteError(err, "closing posting")
	}
	p.Status = StatusClosed
	p.UpdatedAt = s.now().UTC()
	return p, nil
}

// Reactivate reopens an expired posting for another default lifetime.
func (s *Service) Reactivate(ctx context.Context, actorID, id string) (*Posting, error) {
	p, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusExpired {
		return nil, &TransitionError{From: p.Status, To: StatusOpen}
	}

	expiresAt := s.now().UTC().Add(DefaultLifetime)
	if err := s.repo.Reschedule(ctx, actorID, id, p.Status, StatusOpen, expiresAt); err != nil {
		return nil, mapWriteError(err, "reactivating posting")
	}
	p.Status = StatusOpen
	p.ExpiresAt = expiresAt
	return p, nil
}

// Repost reopens an expired posting and discards every prior application.
func (s *Service) Repost(ctx context.Context, actorID, id string) (*Posting, error) {
	p, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusExpired {
		return nil, &TransitionError{From: p.Status, To: StatusOpen}
	}

	expiresAt := s.now().UTC().Add(DefaultLifetime)
	if err := s.repo.Repost(ctx, actorID, id, expiresAt); err != nil {
		return nil, mapWriteError(err, "reposting posting")
	}
	s.logger.Info("posting reposted", "posting_id", id)

	p.Status = StatusOpen
	p.ExpiresAt = expiresAt
	return p, nil
}

// ExtendDeadline moves the expiry forward. An expired posting becomes open again.
func (s *Service) ExtendDeadline(ctx context.Context, actorID, id string, expiresAt time.Time) (*Posting, error) {
	p, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !expiresAt.After(s.now()) {
		return nil, invalidInput("expires_at must be in the future")
	}

	to := p.Status
	switch p.Status {
	case StatusOpen, StatusFilled:
	case StatusExpired:
		to = StatusOpen
	default:
		return nil, &TransitionError{From: p.Status, To: StatusOpen}
	}

	if err := s.repo.Reschedule(ctx, actorID, id, p.Status, to, expiresAt.UTC()); err != nil {
		return nil, mapWriteError(err, "extending posting")
	}
	p.Status = to
	p.ExpiresAt = expiresAt.UTC()
	return p, nil
}

// ExpireDue marks open postings past their expiry as expired.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	n, err := s.repo.ExpireDue(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expiring postings: %w", err)
	}
	if n > 0 {
		s.logger.Info("postings expired", "count", n)
	}
	return n, nil
}

// Team returns the creator and accepted members of a posting.
func (s *Service) Team(ctx context.Context, postingID string) (*Team, error) {
	team, err := s.repo.Team(ctx, postingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("loading team: %w", err)
	}
	return team, nil
}

func (s *Service) owned(ctx context.Context, actorID, id string) (*Posting, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != actorID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *Service) enqueueEmbedding(p *Posting) {
	if s.embedder == nil {
		return
	}
	text := strings.Join([]string{p.Title, p.Category, p.Description}, "\n")
	s.embedder.Enqueue(embedding.KindPosting, p.ID, text)
}

func mapWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrPostingNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
