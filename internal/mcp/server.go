package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/meshit/meshit/internal/auth"
	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/domain/meeting"
)

// ApplicationService defines application operations needed by MCP.
type ApplicationService interface {
	Decide(ctx context.Context, actorID, applicationID string, to application.Status) (*application.Application, error)
	Withdraw(ctx context.Context, actorID, applicationID string) (*application.Application, error)
}

// MatchService defines match operations needed by MCP.
type MatchService interface {
	MatchesForPosting(ctx context.Context, actorID, postingID string) ([]matching.RankedMatch, error)
	MatchesForProfile(ctx context.Context, actorID string) ([]matching.RankedMatch, error)
}

// AvailabilityService defines availability operations needed by MCP.
type AvailabilityService interface {
	CommonAvailability(ctx context.Context, actorID, postingID string, scope availability.Scope) ([]availability.CommonWindow, error)
}

// SkillService defines skill tree lookups needed by MCP.
type SkillService interface {
	Ancestry(ctx context.Context, nodeID string) ([]string, error)
	Breadcrumb(ctx context.Context, nodeID string) (string, error)
}

// MeetingService defines meeting operations needed by MCP.
type MeetingService interface {
	Propose(ctx context.Context, actorID, postingID string, startsAt, endsAt time.Time) (*meeting.Proposal, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Applications ApplicationService
	Matches      MatchService
	Availability AvailabilityService
	Skills       SkillService
	Meetings     MeetingService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      auth.ActorResolver
	AuthEnabled   bool
	DefaultActor  string
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "meshit",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	// Stdio is local only and always acts as the default actor.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(staticActorMiddleware(cfg.DefaultActor))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
