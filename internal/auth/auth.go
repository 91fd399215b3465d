// Package auth resolves the acting profile from identity-provider tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ActorResolver resolves a profile ID from a bearer token.
type ActorResolver interface {
	ResolveActor(ctx context.Context, token string) (string, error)
}

type actorKey struct{}

// WithActor stores the acting profile ID in ctx.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the acting profile ID, if present.
func ActorFromContext(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorKey{}).(string)
	return actorID, ok && actorID != ""
}

// BearerToken extracts the token of an Authorization header value.
func BearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Verifier checks HS256 tokens signed with a shared secret. The token subject
// is the profile ID.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier creates a Verifier. An empty issuer accepts any issuer.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// ResolveActor implements ActorResolver.
func (v *Verifier) ResolveActor(_ context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims.Subject, nil
}

// Issue signs a token for actorID valid for ttl. Used by tooling and tests.
func (v *Verifier) Issue(actorID string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   actorID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Static resolves every token to the same actor. It backs auth-disabled
// deployments and stdio sessions.
type Static string

// ResolveActor implements ActorResolver.
func (s Static) ResolveActor(context.Context, string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: no default actor configured", ErrUnauthorized)
	}
	return string(s), nil
}
