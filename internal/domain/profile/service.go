package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meshit/meshit/internal/embedding"
	"github.com/meshit/meshit/internal/repository"
)

var (
	// ErrProfileNotFound indicates the profile doesn't exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidInput indicates invalid input for profile operations.
	ErrInvalidInput = errors.New("invalid profile input")
)

// Repository provides persistence for profiles.
type Repository interface {
	Get(ctx context.Context, id string) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}

// Embedder schedules embedding generation without blocking the caller.
type Embedder interface {
	Enqueue(kind embedding.Kind, id, text string)
}

// Service handles profile business logic.
type Service struct {
	repo     Repository
	embedder Embedder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new profile service. embedder may be nil.
func NewService(repo Repository, embedder Embedder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, embedder: embedder, logger: logger, now: time.Now}
}

// SaveRequest describes a profile save. The profile ID is always the actor.
type SaveRequest struct {
	DisplayName     string             `json:"display_name"`
	Bio             string             `json:"bio"`
	Skills          []Skill            `json:"skills"`
	Interests       []string           `json:"interests"`
	Languages       []string           `json:"languages"`
	Location        Location           `json:"location"`
	Timezone        string             `json:"timezone"`
	HoursPerWeek    int                `json:"hours_per_week"`
	ExperienceLevel int                `json:"experience_level"`
	NotifyPrefs     *NotificationPrefs `json:"notification_prefs"`
}

// Save creates the actor's profile on first save and replaces it afterwards.
func (s *Service) Save(ctx context.Context, actorID string, req SaveRequest) (*Profile, error) {
	if err := validateSave(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &Profile{
		ID:              actorID,
		DisplayName:     strings.TrimSpace(req.DisplayName),
		Bio:             req.Bio,
		Skills:          req.Skills,
		Interests:       req.Interests,
		Languages:       req.Languages,
		Location:        req.Location,
		Timezone:        req.Timezone,
		HoursPerWeek:    req.HoursPerWeek,
		ExperienceLevel: req.ExperienceLevel,
		NotifyPrefs:     DefaultNotificationPrefs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if p.Location.Mode == "" {
		p.Location.Mode = LocationEither
	}

	existing, err := s.repo.Get(ctx, actorID)
	switch {
	case err == nil:
		p.CreatedAt = existing.CreatedAt
		p.Embedding = existing.Embedding
		p.NotifyPrefs = existing.NotifyPrefs
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if req.NotifyPrefs != nil {
		p.NotifyPrefs = *req.NotifyPrefs
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("%w: unknown skill reference", ErrInvalidInput)
		}
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	if s.embedder != nil {
		s.embedder.Enqueue(embedding.KindProfile, p.ID, embeddingText(p))
	}
	return p, nil
}

// Get loads a profile by ID.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return p, nil
}

func validateSave(req SaveRequest) error {
	if strings.TrimSpace(req.DisplayName) == "" {
		return fmt.Errorf("%w: display_name is required", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(req.Skills))
	for _, sk := range req.Skills {
		if sk.SkillID == "" {
			return fmt.Errorf("%w: skill without skill_id", ErrInvalidInput)
		}
		if _, dup := seen[sk.SkillID]; dup {
			return fmt.Errorf("%w: skill %s listed twice", ErrInvalidInput, sk.SkillID)
		}
		seen[sk.SkillID] = struct{}{}
		if sk.Level < 0 || sk.Level > 10 {
			return fmt.Errorf("%w: level for %s must be within 0..10", ErrInvalidInput, sk.SkillID)
		}
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, req.Timezone)
		}
	}
	switch req.Location.Mode {
	case "", LocationRemote, LocationInPerson, LocationEither:
	default:
		return fmt.Errorf("%w: unknown location mode %q", ErrInvalidInput, req.Location.Mode)
	}
	if req.HoursPerWeek < 0 || req.HoursPerWeek > 168 {
		return fmt.Errorf("%w: hours_per_week must be within 0..168", ErrInvalidInput)
	}
	if req.ExperienceLevel < 0 || req.ExperienceLevel > 10 {
		return fmt.Errorf("%w: experience_level must be within 0..10", ErrInvalidInput)
	}
	return nil
}

func embeddingText(p *Profile) string {
	parts := []string{p.DisplayName, p.Bio}
	parts = append(parts, p.Interests...)
	return strings.Join(parts, "\n")
}
