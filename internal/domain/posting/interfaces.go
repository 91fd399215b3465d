package posting

import (
	"context"
	"time"

	"github.com/meshit/meshit/internal/embedding"
)

// Repository provides persistence for postings. Mutations are scoped to the
// acting creator so the store refuses rows the actor does not own.
type Repository interface {
	Create(ctx context.Context, p *Posting) error
	Get(ctx context.Context, id string) (*Posting, error)
	UpdateStatus(ctx context.Context, actorID, id string, from, to Status) error
	Reschedule(ctx context.Context, actorID, id string, from, to Status, expiresAt time.Time) error
	Repost(ctx context.Context, actorID, id string, expiresAt time.Time) error
	ExpireDue(ctx context.Context, now time.Time) (int, error)
	Team(ctx context.Context, postingID string) (*Team, error)
}

// Embedder schedules embedding generation without blocking the caller.
type Embedder interface {
	Enqueue(kind embedding.Kind, id, text string)
}
