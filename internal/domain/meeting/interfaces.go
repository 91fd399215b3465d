package meeting

import (
	"context"

	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/events"
)

// Repository provides persistence for meeting proposals and responses.
type Repository interface {
	// CreateCapped stores p unless the posting already has max proposals in
	// the proposed state, in which case it returns repository.ErrCapacityReached.
	CreateCapped(ctx context.Context, p *Proposal, max int) error
	Get(ctx context.Context, id string) (*Proposal, error)
	ListForPosting(ctx context.Context, postingID string) ([]Proposal, error)
	// Respond records or replaces a member's response.
	Respond(ctx context.Context, proposalID string, r Response) error
	UpdateStatus(ctx context.Context, id string, from, to Status) error
}

// TeamRepository resolves who works on a posting.
type TeamRepository interface {
	Team(ctx context.Context, postingID string) (*posting.Team, error)
}

// Outbox delivers secondary effects without blocking.
type Outbox interface {
	Send(n notification.Notification)
	Publish(e events.Event)
}
