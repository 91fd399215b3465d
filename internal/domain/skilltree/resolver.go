package skilltree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/meshit/meshit/internal/repository"
)

// Resolver answers ancestry and descendant questions over the skill tree.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{repo: repo, logger: logger}
}

// Ancestry returns ancestor names from the root down to the immediate parent.
// The node itself is not included.
func (r *Resolver) Ancestry(ctx context.Context, nodeID string) ([]string, error) {
	node, err := r.node(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	var names []string
	for hops := 0; node.ParentID != nil; hops++ {
		if hops >= MaxDepth {
			r.logger.Error("skill ancestry too deep", "node_id", nodeID, "max_depth", MaxDepth)
			return nil, fmt.Errorf("%w: ancestry of %s", ErrDepthExceeded, nodeID)
		}
		parent, err := r.node(ctx, *node.ParentID)
		if err != nil {
			return nil, err
		}
		names = append(names, parent.Name)
		node = parent
	}

	slices.Reverse(names)
	return names, nil
}

// Breadcrumb renders the full path of a node, e.g. "Frontend > JavaScript > React".
func (r *Resolver) Breadcrumb(ctx context.Context, nodeID string) (string, error) {
	node, err := r.node(ctx, nodeID)
	if err != nil {
		return "", err
	}
	names, err := r.Ancestry(ctx, nodeID)
	if err != nil {
		return "", err
	}
	return strings.Join(append(names, node.Name), " > "), nil
}

// Descendants returns the IDs of every node in the subtree rooted at nodeID,
// including nodeID itself.
func (r *Resolver) Descendants(ctx context.Context, nodeID string) (map[string]struct{}, error) {
	if _, err := r.node(ctx, nodeID); err != nil {
		return nil, err
	}

	out := map[string]struct{}{nodeID: {}}
	frontier := []string{nodeID}
	for level := 0; len(frontier) > 0; level++ {
		if level > MaxDepth {
			r.logger.Error("skill subtree too deep", "node_id", nodeID, "max_depth", MaxDepth)
			return nil, fmt.Errorf("%w: subtree of %s", ErrDepthExceeded, nodeID)
		}
		children, err := r.repo.ListChildren(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("listing skill children: %w", err)
		}
		var next []string
		for _, child := range children {
			if _, seen := out[child.ID]; seen {
				continue
			}
			out[child.ID] = struct{}{}
			next = append(next, child.ID)
		}
		frontier = next
	}
	return out, nil
}

// Satisfies reports whether holding profileSkillID meets a requirement for
// requiredID, i.e. the held skill is requiredID or one of its descendants.
func (r *Resolver) Satisfies(ctx context.Context, requiredID, profileSkillID string) (bool, error) {
	if requiredID == profileSkillID {
		return true, nil
	}
	desc, err := r.Descendants(ctx, requiredID)
	if err != nil {
		return false, err
	}
	_, ok := desc[profileSkillID]
	return ok, nil
}

func (r *Resolver) node(ctx context.Context, id string) (*Node, error) {
	node, err := r.repo.GetNode(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
		return nil, fmt.Errorf("loading skill node: %w", err)
	}
	return node, nil
}
