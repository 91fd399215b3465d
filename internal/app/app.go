// Package app assembles repositories and services into a running MeshIt
// instance. Both the server binary and the test server build through it.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/meshit/meshit/internal/config"
	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/domain/meeting"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/domain/skilltree"
	"github.com/meshit/meshit/internal/effects"
	"github.com/meshit/meshit/internal/embedding"
	"github.com/meshit/meshit/internal/events"
	"github.com/meshit/meshit/internal/mcp"
	"github.com/meshit/meshit/internal/postgres"
	"github.com/meshit/meshit/internal/scheduler"
	"github.com/meshit/meshit/internal/sqlite"
	"github.com/meshit/meshit/internal/transport"
)

// Deps are the infrastructure handles services are built on. Vector,
// Publisher and Generator are optional.
type Deps struct {
	DB        *sqlite.DB
	Vector    *postgres.Store
	Publisher events.Publisher
	Generator embedding.Generator
	Launcher  effects.Launcher
	Config    config.Config
	Logger    *slog.Logger
}

// App holds the assembled services.
type App struct {
	Postings      *posting.Service
	Applications  *application.Service
	Matches       *matching.Service
	Availability  *availability.Service
	Profiles      *profile.Service
	Skills        *skilltree.Resolver
	Meetings      *meeting.Service
	Notifications *notification.Service
}

// New wires every repository and service.
func New(deps Deps) (*App, error) {
	if deps.DB == nil {
		return nil, errors.New("app: database is required")
	}
	if deps.Launcher == nil {
		return nil, errors.New("app: effect launcher is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := deps.Config

	postingRepo := sqlite.NewPostingRepository(deps.DB)
	profileRepo := sqlite.NewProfileRepository(deps.DB)
	skillRepo := sqlite.NewSkillRepository(deps.DB)
	applicationRepo := sqlite.NewApplicationRepository(deps.DB)
	matchRepo := sqlite.NewMatchRepository(deps.DB)
	windowRepo := sqlite.NewWindowRepository(deps.DB)
	busyRepo := sqlite.NewBusyBlockRepository(deps.DB)
	meetingRepo := sqlite.NewMeetingRepository(deps.DB)
	notificationRepo := sqlite.NewNotificationRepository(deps.DB)

	stores := embedding.Stores{sqlite.NewEmbeddingStore(deps.DB)}
	var similarity matching.SimilarityRepository = sqlite.NewSimilarityRepository(deps.DB)
	if deps.Vector != nil {
		stores = append(stores, deps.Vector)
		similarity = deps.Vector
	}
	retry := effects.RetryPolicy{Retries: cfg.Embedding.Retries, Backoff: cfg.Embedding.Backoff}
	embedder := embedding.NewTrigger(deps.Generator, stores, deps.Launcher, retry)

	notifications := notification.NewService(notificationRepo, profileRepo, logger.With("component", "notification"))
	outbox := notification.NewOutbox(notifications, deps.Publisher, deps.Launcher)

	skills := skilltree.NewResolver(skillRepo, logger.With("component", "skilltree"))
	scorer, err := matching.NewScorer(skills, matching.DefaultWeights)
	if err != nil {
		return nil, fmt.Errorf("building scorer: %w", err)
	}

	normalizer := availability.Normalizer{SplitMidnight: cfg.Availability.SplitMidnight}

	return &App{
		Postings:     posting.NewService(postingRepo, embedder, logger.With("component", "posting")),
		Applications: application.NewService(applicationRepo, postingRepo, outbox, logger.With("component", "application")),
		Matches: matching.NewService(
			matchRepo,
			postingRepo,
			sqlite.NewCandidateRepository(deps.DB),
			similarity,
			scorer,
			outbox,
			cfg.Matching.CandidateLimit,
			logger.With("component", "matching"),
		),
		Availability:  availability.NewService(windowRepo, busyRepo, postingRepo, profileRepo, normalizer, logger.With("component", "availability")),
		Profiles:      profile.NewService(profileRepo, embedder, logger.With("component", "profile")),
		Skills:        skills,
		Meetings:      meeting.NewService(meetingRepo, postingRepo, outbox, cfg.Meeting.MaxProposals, logger.With("component", "meeting")),
		Notifications: notifications,
	}, nil
}

// HTTPServices exposes the services to the REST router.
func (a *App) HTTPServices() transport.Services {
	return transport.Services{
		Postings:      a.Postings,
		Applications:  a.Applications,
		Matches:       a.Matches,
		Availability:  a.Availability,
		Profiles:      a.Profiles,
		Skills:        a.Skills,
		Meetings:      a.Meetings,
		Notifications: a.Notifications,
	}
}

// MCPServices exposes the services to the MCP tools.
func (a *App) MCPServices() mcp.Services {
	return mcp.Services{
		Applications: a.Applications,
		Matches:      a.Matches,
		Availability: a.Availability,
		Skills:       a.Skills,
		Meetings:     a.Meetings,
	}
}

// Scheduler builds the periodic maintenance jobs from config.
func (a *App) Scheduler(cfg config.SchedulerConfig, logger *slog.Logger) *scheduler.Scheduler {
	return scheduler.New(logger,
		scheduler.ExpirePostings(cfg.ExpirySpec, a.Postings),
		scheduler.RescanWaitlists(cfg.RescanSpec, a.Applications),
	)
}
