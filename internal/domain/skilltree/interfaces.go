package skilltree

import "context"

// Repository reads skill nodes.
type Repository interface {
	GetNode(ctx context.Context, id string) (*Node, error)
	ListChildren(ctx context.Context, parentIDs []string) ([]Node, error)
}
