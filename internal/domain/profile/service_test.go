package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/embedding"
	"github.com/meshit/meshit/internal/repository"
	"github.com/meshit/meshit/internal/repository/mocks"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfileService_SaveCreates(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProfileRepository{}
	embedder := &mocks.Embedder{}
	repo.On("Get", ctx, "bob").Return((*profile.Profile)(nil), repository.ErrNotFound)
	repo.On("Upsert", ctx, mock.MatchedBy(func(p *profile.Profile) bool {
		return p.ID == "bob" && p.Timezone == "UTC" && p.Location.Mode == profile.LocationEither
	})).Return(nil)
	embedder.On("Enqueue", embedding.KindProfile, "bob", mock.AnythingOfType("string")).Return()

	svc := profile.NewService(repo, embedder, nil)
	p, err := svc.Save(ctx, "bob", profile.SaveRequest{
		DisplayName: " Bob ",
		Skills:      []profile.Skill{{SkillID: "go", Level: 7}},
		Interests:   []string{"compilers"},
	})
	require.NoError(t, err)
	require.Equal(t, "Bob", p.DisplayName)
	require.Equal(t, profile.DefaultNotificationPrefs, p.NotifyPrefs)
	embedder.AssertExpectations(t)
}

func TestProfileService_SaveKeepsExistingState(t *testing.T) {
	ctx := context.Background()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	vec := pgvector.NewVector([]float32{0.1, 0.2})
	muted := profile.NotificationPrefs{Applications: true}

	repo := &mocks.ProfileRepository{}
	repo.On("Get", ctx, "bob").Return(&profile.Profile{ID: "bob", CreatedAt: created, Embedding: &vec, NotifyPrefs: muted}, nil)
	repo.On("Upsert", ctx, mock.Anything).Return(nil)

	svc := profile.NewService(repo, nil, nil)
	p, err := svc.Save(ctx, "bob", profile.SaveRequest{DisplayName: "Bob", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	require.Equal(t, created, p.CreatedAt)
	require.Equal(t, &vec, p.Embedding)
	require.Equal(t, muted, p.NotifyPrefs)
	require.Equal(t, "Europe/Berlin", p.Timezone)
}

func TestProfileService_SaveValidation(t *testing.T) {
	ctx := context.Background()
	svc := profile.NewService(&mocks.ProfileRepository{}, nil, nil)

	for name, req := range map[string]profile.SaveRequest{
		"no name":        {},
		"bad level":      {DisplayName: "Bob", Skills: []profile.Skill{{SkillID: "go", Level: 11}}},
		"duplicate":      {DisplayName: "Bob", Skills: []profile.Skill{{SkillID: "go"}, {SkillID: "go"}}},
		"bad timezone":   {DisplayName: "Bob", Timezone: "Mars/Olympus"},
		"bad mode":       {DisplayName: "Bob", Location: profile.Location{Mode: "teleport"}},
		"too many hours": {DisplayName: "Bob", HoursPerWeek: 200},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Save(ctx, "bob", req)
			require.ErrorIs(t, err, profile.ErrInvalidInput)
		})
	}
}

func TestProfileService_GetNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProfileRepository{}
	repo.On("Get", ctx, "ghost").Return((*profile.Profile)(nil), repository.ErrNotFound)

	_, err := profile.NewService(repo, nil, nil).Get(ctx, "ghost")
	require.ErrorIs(t, err, profile.ErrProfileNotFound)
}
