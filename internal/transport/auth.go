package transport

import (
	"net/http"

	"github.com/meshit/meshit/internal/auth"
	"github.com/meshit/meshit/internal/errcode"
)

// AuthMiddleware enforces bearer token authentication and stores the acting
// profile in the request context.
func AuthMiddleware(resolver auth.ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeCode(w, errcode.Unauthorized, "missing bearer token")
				return
			}

			actorID, err := resolver.ResolveActor(r.Context(), token)
			if err != nil || actorID == "" {
				writeCode(w, errcode.Unauthorized, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actorID)))
		})
	}
}

// StaticActorMiddleware acts as actorID on every request. It backs
// deployments with auth disabled.
func StaticActorMiddleware(actorID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actorID)))
		})
	}
}

// actor returns the acting profile. Routes are only mounted behind one of the
// middlewares above, so a missing actor is an authentication failure.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeCode(w, errcode.Unauthorized, "missing actor")
		return "", false
	}
	return actorID, true
}
