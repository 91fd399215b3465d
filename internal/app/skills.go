package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meshit/meshit/internal/domain/skilltree"
	"github.com/meshit/meshit/internal/repository"
)

// SkillSeed is one node of a skill tree file, with its subtree.
type SkillSeed struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Aliases  []string    `yaml:"aliases"`
	Children []SkillSeed `yaml:"children"`
}

// SkillCreator inserts skill nodes.
type SkillCreator interface {
	Create(ctx context.Context, node *skilltree.Node) error
}

// ParseSkillTree decodes a YAML list of root skills.
func ParseSkillTree(data []byte) ([]SkillSeed, error) {
	var roots []SkillSeed
	if err := yaml.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("parse skill tree: %w", err)
	}
	return roots, nil
}

// LoadSkillTree reads the skill tree file at path and seeds it.
func LoadSkillTree(ctx context.Context, repo SkillCreator, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read skill tree: %w", err)
	}
	roots, err := ParseSkillTree(data)
	if err != nil {
		return 0, err
	}
	return SeedSkills(ctx, repo, roots)
}

// SeedSkills inserts every node parents first and returns how many were new.
// Nodes that already exist are left alone, so seeding twice is harmless.
func SeedSkills(ctx context.Context, repo SkillCreator, roots []SkillSeed) (int, error) {
	created := 0
	var walk func(seeds []SkillSeed, parentID *string, depth int) error
	walk = func(seeds []SkillSeed, parentID *string, depth int) error {
		if depth > skilltree.MaxDepth {
			return skilltree.ErrDepthExceeded
		}
		for _, seed := range seeds {
			if seed.ID == "" || seed.Name == "" {
				return fmt.Errorf("skill seed needs id and name (got id %q)", seed.ID)
			}
			node := &skilltree.Node{ID: seed.ID, ParentID: parentID, Name: seed.Name, Aliases: seed.Aliases}
			switch err := repo.Create(ctx, node); {
			case err == nil:
				created++
			case errors.Is(err, repository.ErrDuplicate):
			default:
				return fmt.Errorf("seed skill %s: %w", seed.ID, err)
			}
			id := seed.ID
			if err := walk(seed.Children, &id, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(roots, nil, 0); err != nil {
		return created, err
	}
	return created, nil
}
