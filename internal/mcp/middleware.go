package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/meshit/meshit/internal/auth"
)

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver auth.ActorResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Protocol handshake runs before credentials matter.
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("%w: missing headers", auth.ErrUnauthorized)
			}

			token := auth.BearerToken(extra.Header.Get("Authorization"))
			if token == "" {
				return nil, fmt.Errorf("%w: missing bearer token", auth.ErrUnauthorized)
			}

			actorID, err := resolver.ResolveActor(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
			}
			if actorID == "" {
				return nil, fmt.Errorf("%w: invalid bearer token", auth.ErrUnauthorized)
			}

			return next(auth.WithActor(ctx, actorID), method, req)
		}
	}
}

// staticActorMiddleware acts as actorID when auth is disabled.
func staticActorMiddleware(actorID string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(auth.WithActor(ctx, actorID), method, req)
		}
	}
}

// actorID extracts the acting profile from context.
func actorID(ctx context.Context) string {
	v, _ := auth.ActorFromContext(ctx)
	return v
}
