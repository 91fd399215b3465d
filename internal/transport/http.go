package transport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/domain/meeting"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/domain/skilltree"
)

// Services are the domain services behind the REST API.
type Services struct {
	Postings      *posting.Service
	Applications  *application.Service
	Matches       *matching.Service
	Availability  *availability.Service
	Profiles      *profile.Service
	Skills        *skilltree.Resolver
	Meetings      *meeting.Service
	Notifications *notification.Service
}

// Options tunes the HTTP server.
type Options struct {
	// CORSOrigins lists allowed origins; empty allows any.
	CORSOrigins []string
	Logger      *slog.Logger
	// MCP, when set, is mounted at /mcp behind the same authentication.
	MCP http.Handler
}

// Server wires HTTP handlers.
type Server struct {
	svc    Services
	logger *slog.Logger
}

// NewServer creates the REST router. Every route except /health runs behind
// authMiddleware.
func NewServer(svc Services, authMiddleware func(http.Handler) http.Handler, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Get("/matches-for-posting/{id}", srv.handleMatchesForPosting)
		r.Get("/matches", srv.handleMyMatches)
		r.Patch("/matches/{id}/apply", srv.handleApplyMatch)
		r.Patch("/matches/{id}/decide", srv.handleDecideMatch)

		r.Post("/postings", srv.handleCreatePosting)
		r.Route("/postings/{id}", func(r chi.Router) {
			r.Get("/", srv.handleGetPosting)
			r.Patch("/close", srv.handleClosePosting)
			r.Patch("/reactivate", srv.handleReactivatePosting)
			r.Patch("/repost", srv.handleRepostPosting)
			r.Patch("/extend", srv.handleExtendPosting)
			r.Post("/matches/regenerate", srv.handleRegenerateMatches)
			r.Post("/applications", srv.handleSubmitApplication)
			r.Get("/applications", srv.handleListApplications)
			r.Get("/common-availability", srv.handleCommonAvailability)
			r.Put("/availability", srv.handleSetPostingAvailability)
			r.Post("/meetings", srv.handleProposeMeeting)
			r.Get("/meetings", srv.handleListMeetings)
		})

		r.Get("/applications/{id}", srv.handleGetApplication)
		r.Patch("/applications/{id}/decide", srv.handleDecideApplication)
		r.Patch("/applications/{id}/withdraw", srv.handleWithdrawApplication)

		r.Put("/profile", srv.handleSaveProfile)
		r.Put("/profile/availability", srv.handleSetProfileAvailability)
		r.Put("/profile/availability/quick", srv.handleSetQuickAvailability)
		r.Get("/profiles/{id}", srv.handleGetProfile)
		r.Get("/profiles/{id}/availability", srv.handleGetProfileAvailability)
		r.Put("/calendar/{connectionID}/busy-blocks", srv.handleSyncBusyBlocks)

		r.Get("/skills/{id}/ancestry", srv.handleSkillAncestry)

		r.Patch("/meetings/{id}/respond", srv.handleRespondMeeting)
		r.Patch("/meetings/{id}/confirm", srv.handleConfirmMeeting)
		r.Patch("/meetings/{id}/cancel", srv.handleCancelMeeting)

		r.Get("/notifications", srv.handleListNotifications)
		r.Patch("/notifications/{id}/read", srv.handleMarkNotificationRead)

		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
		}
	})

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	})
	return c.Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
