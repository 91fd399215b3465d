package availability

import (
	"context"

	"github.com/meshit/meshit/internal/domain/posting"
)

// WindowRepository provides persistence for declared availability windows.
type WindowRepository interface {
	ListByOwner(ctx context.Context, owner OwnerKind, ownerID string) ([]Window, error)
	ReplaceForOwner(ctx context.Context, owner OwnerKind, ownerID string, windows []Window) error
}

// BusyBlockRepository provides persistence for calendar busy blocks. A sync
// replaces every block of a connection at once.
type BusyBlockRepository interface {
	ReplaceForConnection(ctx context.Context, profileID, connectionID string, blocks []BusyBlock) error
	ListByProfile(ctx context.Context, profileID string) ([]BusyBlock, error)
}

// TeamRepository resolves who works on a posting.
type TeamRepository interface {
	Team(ctx context.Context, postingID string) (*posting.Team, error)
}

// TimezoneRepository resolves a profile's declared IANA timezone.
type TimezoneRepository interface {
	Timezone(ctx context.Context, profileID string) (string, error)
}
