package application

import (
	"context"
	"time"

	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/events"
)

// Repository provides persistence for applications. Accept, Withdraw and
// PromoteNext each run in a single transaction together with any posting
// status change they cause.
type Repository interface {
	Create(ctx context.Context, a *Application) error
	Get(ctx context.Context, id string) (*Application, error)
	ListForPosting(ctx context.Context, postingID string) ([]Application, error)
	CountAccepted(ctx context.Context, postingID string) (int, error)
	// UpdateStatus moves an application between statuses that do not change
	// team capacity. The actor must be the applicant or the posting creator.
	UpdateStatus(ctx context.Context, actorID, id string, from, to Status) error
	// Accept fails with repository.ErrCapacityReached when the team is full.
	Accept(ctx context.Context, req AcceptRequest) (*AcceptResult, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error)
	// PromoteNext accepts the longest-waiting application of a posting if a
	// seat is free. It returns nil when nothing was promoted.
	PromoteNext(ctx context.Context, postingID string, now time.Time) (*Application, error)
	ListVacancies(ctx context.Context) ([]Vacancy, error)
	// ReconcileStatuses reopens filled postings that have a free seat and no
	// waitlist, and fills open postings at capacity.
	ReconcileStatuses(ctx context.Context, now time.Time) (int, error)
}

// PostingReader loads postings.
type PostingReader interface {
	Get(ctx context.Context, id string) (*posting.Posting, error)
}

// Outbox delivers secondary effects without blocking.
type Outbox interface {
	Send(n notification.Notification)
	Publish(e events.Event)
}
