// Package skilltree resolves positions in the hierarchical skill taxonomy.
package skilltree

// MaxDepth bounds every walk of the tree. A longer chain is corrupt data.
const MaxDepth = 10

// Node is an entry in the skill taxonomy.
type Node struct {
	ID       string   `json:"id"`
	ParentID *string  `json:"parent_id,omitempty"`
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	Depth    int      `json:"depth"`
	IsLeaf   bool     `json:"is_leaf"`
}
