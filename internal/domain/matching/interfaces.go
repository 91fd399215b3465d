package matching

import (
	"context"

	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/events"
)

// Repository provides persistence for matches. Rows are unique per
// (profile_id, posting_id).
type Repository interface {
	// CreateIfAbsent stores m unless the pair already has a row, and returns
	// whichever row is now stored.
	CreateIfAbsent(ctx context.Context, m *Match) (stored *Match, created bool, err error)
	// Upsert stores m, replacing the score of an existing row but keeping its status.
	Upsert(ctx context.Context, m *Match) (*Match, error)
	Get(ctx context.Context, id string) (*Match, error)
	ListForPosting(ctx context.Context, postingID string) ([]Match, error)
	ListForProfile(ctx context.Context, profileID string) ([]Match, error)
	// UpdateStatus moves a match from one status to another. The actor must be
	// the matched profile or the posting creator.
	UpdateStatus(ctx context.Context, actorID, id string, from, to Status) error
}

// PostingReader loads postings.
type PostingReader interface {
	Get(ctx context.Context, id string) (*posting.Posting, error)
}

// CandidateRepository lists profiles worth scoring for a posting, best
// semantic fit first. The posting creator is never a candidate.
type CandidateRepository interface {
	Candidates(ctx context.Context, postingID string, limit int) ([]profile.Profile, error)
}

// SimilarityRepository runs the vector-similarity function in the storage
// layer. Profiles without an embedding are absent from the result.
type SimilarityRepository interface {
	Similarities(ctx context.Context, postingID string, profileIDs []string) (map[string]float64, error)
}

// Outbox delivers secondary effects without blocking.
type Outbox interface {
	Send(n notification.Notification)
	Publish(e events.Event)
}
