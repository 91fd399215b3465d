package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meshit/meshit/internal/domain/skilltree"
	"github.com/meshit/meshit/internal/repository"
)

// SkillRepository implements skilltree.Repository for SQLite
type SkillRepository struct {
	db *DB
}

// NewSkillRepository creates a new SkillRepository
func NewSkillRepository(db *DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// Create inserts a skill node. Depth and leaf flags are derived from the parent.
func (r *SkillRepository) Create(ctx context.Context, node *skilltree.Node) error {
	aliases, err := json.Marshal(nonNil(node.Aliases))
	if err != nil {
		return fmt.Errorf("failed to encode aliases: %w", err)
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		node.Depth = 0
		if node.ParentID != nil {
			err := tx.QueryRowContext(ctx, `SELECT depth + 1 FROM skill_nodes WHERE id = ?`, *node.ParentID).Scan(&node.Depth)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("create skill node: %w", repository.ErrForeignKeyViolation)
			}
			if err != nil {
				return fmt.Errorf("failed to load parent skill: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE skill_nodes SET is_leaf = 0 WHERE id = ?`, *node.ParentID); err != nil {
				return fmt.Errorf("failed to update parent skill: %w", err)
			}
		}
		node.IsLeaf = true

		_, err := tx.ExecContext(ctx,
			`INSERT INTO skill_nodes (id, parent_id, name, aliases, depth, is_leaf) VALUES (?, ?, ?, ?, ?, ?)`,
			node.ID, node.ParentID, node.Name, string(aliases), node.Depth, node.IsLeaf)
		if err != nil {
			return writeError(err, "create skill node")
		}
		return nil
	})
}

// GetNode retrieves a skill node by ID
func (r *SkillRepository) GetNode(ctx context.Context, id string) (*skilltree.Node, error) {
	nodes, err := r.query(ctx, `
		SELECT id, parent_id, name, aliases, depth, is_leaf
		FROM skill_nodes
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, repository.ErrNotFound
	}
	return &nodes[0], nil
}

// ListChildren returns the direct children of every given parent.
func (r *SkillRepository) ListChildren(ctx context.Context, parentIDs []string) ([]skilltree.Node, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(parentIDs))
	for i, id := range parentIDs {
		args[i] = id
	}
	return r.query(ctx, `
		SELECT id, parent_id, name, aliases, depth, is_leaf
		FROM skill_nodes
		WHERE parent_id IN (`+placeholders(len(args))+`)
		ORDER BY id
	`, args...)
}

func (r *SkillRepository) query(ctx context.Context, query string, args ...any) ([]skilltree.Node, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query skill nodes: %w", err)
	}
	defer rows.Close()

	var nodes []skilltree.Node
	for rows.Next() {
		var (
			n       skilltree.Node
			aliases string
		)
		if err := rows.Scan(&n.ID, &n.ParentID, &n.Name, &aliases, &n.Depth, &n.IsLeaf); err != nil {
			return nil, fmt.Errorf("failed to scan skill node: %w", err)
		}
		if err := json.Unmarshal([]byte(aliases), &n.Aliases); err != nil {
			return nil, fmt.Errorf("failed to decode aliases: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skill rows: %w", err)
	}
	return nodes, nil
}
