package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshit/meshit/internal/config"
	"github.com/meshit/meshit/internal/effects"
	"github.com/meshit/meshit/internal/sqlite"
)

const skillTree = `
- id: software
  name: Software
  children:
    - id: frontend
      name: Frontend
      children:
        - id: react
          name: React
          aliases: [reactjs]
- id: design
  name: Design
`

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{Launcher: effects.NewInline(nil), Config: config.Default()})
	require.Error(t, err)

	_, err = New(Deps{DB: newTestDB(t), Config: config.Default()})
	require.Error(t, err)
}

func TestSeedSkills(t *testing.T) {
	db := newTestDB(t)
	a, err := New(Deps{DB: db, Launcher: effects.NewInline(nil), Config: config.Default()})
	require.NoError(t, err)

	roots, err := ParseSkillTree([]byte(skillTree))
	require.NoError(t, err)

	ctx := context.Background()
	repo := sqlite.NewSkillRepository(db)

	created, err := SeedSkills(ctx, repo, roots)
	require.NoError(t, err)
	require.Equal(t, 4, created)

	created, err = SeedSkills(ctx, repo, roots)
	require.NoError(t, err)
	require.Zero(t, created)

	ancestors, err := a.Skills.Ancestry(ctx, "react")
	require.NoError(t, err)
	require.Equal(t, []string{"Software", "Frontend"}, ancestors)

	node, err := repo.GetNode(ctx, "frontend")
	require.NoError(t, err)
	require.False(t, node.IsLeaf)
}

func TestSeedSkills_RejectsIncompleteNode(t *testing.T) {
	_, err := SeedSkills(context.Background(), sqlite.NewSkillRepository(newTestDB(t)), []SkillSeed{{ID: "x"}})
	require.Error(t, err)
}

func TestParseSkillTree_Invalid(t *testing.T) {
	_, err := ParseSkillTree([]byte("id: [unterminated"))
	require.Error(t, err)
}
