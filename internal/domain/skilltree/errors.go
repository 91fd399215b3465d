package skilltree

import "errors"

var (
	// ErrNodeNotFound indicates the skill node doesn't exist.
	ErrNodeNotFound = errors.New("skill node not found")
	// ErrDepthExceeded indicates a parent chain or subtree deeper than MaxDepth.
	ErrDepthExceeded = errors.New("skill tree depth exceeded")
)
