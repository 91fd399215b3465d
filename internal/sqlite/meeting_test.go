package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshit/meshit/internal/domain/meeting"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/repository"
)

func newProposal(id string, start time.Time) *meeting.Proposal {
	now := time.Now().UTC()
	return &meeting.Proposal{
		ID:         id,
		PostingID:  "p1",
		ProposerID: "creator",
		StartsAt:   start,
		EndsAt:     start.Add(time.Hour),
		Status:     meeting.StatusProposed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMeetingRepository_CreateCapped(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMeetingRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "creator")
	seedPosting(t, db, "p1", "creator", 2, false)

	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateCapped(ctx, newProposal("m1", start.Add(time.Hour)), 2))
	require.NoError(t, repo.CreateCapped(ctx, newProposal("m2", start), 2))
	require.ErrorIs(t, repo.CreateCapped(ctx, newProposal("m3", start), 2), repository.ErrCapacityReached)

	// Cancelling frees a slot.
	require.NoError(t, repo.UpdateStatus(ctx, "m1", meeting.StatusProposed, meeting.StatusCancelled))
	require.NoError(t, repo.CreateCapped(ctx, newProposal("m3", start), 2))

	list, err := repo.ListForPosting(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.True(t, start.Equal(list[0].StartsAt))
}

func TestMeetingRepository_Respond(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMeetingRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "creator")
	seedProfile(t, db, "alice")
	seedPosting(t, db, "p1", "creator", 2, false)
	require.NoError(t, repo.CreateCapped(ctx, newProposal("m1", time.Now().UTC().Add(time.Hour)), 3))

	now := time.Now().UTC()
	require.NoError(t, repo.Respond(ctx, "m1", meeting.Response{ProfileID: "alice", Available: false, RespondedAt: now}))
	require.NoError(t, repo.Respond(ctx, "m1", meeting.Response{ProfileID: "alice", Available: true, RespondedAt: now}))
	require.NoError(t, repo.Respond(ctx, "m1", meeting.Response{ProfileID: "creator", Available: true, RespondedAt: now}))

	got, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, got.Responses, 2)
	for _, r := range got.Responses {
		require.True(t, r.Available, r.ProfileID)
	}

	require.ErrorIs(t, repo.Respond(ctx, "missing", meeting.Response{ProfileID: "alice", RespondedAt: now}), repository.ErrNotFound)

	require.NoError(t, repo.UpdateStatus(ctx, "m1", meeting.StatusProposed, meeting.StatusConfirmed))
	require.ErrorIs(t, repo.UpdateStatus(ctx, "m1", meeting.StatusProposed, meeting.StatusCancelled), repository.ErrConflict)
	require.ErrorIs(t, repo.UpdateStatus(ctx, "missing", meeting.StatusProposed, meeting.StatusCancelled), repository.ErrNotFound)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotificationRepository(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "alice")

	postingID := "p1"
	base := time.Now().UTC()
	for i, typ := range []notification.Type{
		notification.TypeApplicationReceived,
		notification.TypeMatchApplied,
		notification.TypeMeetingProposed,
	} {
		require.NoError(t, repo.Create(ctx, &notification.Notification{
			ID:        string(typ),
			ProfileID: "alice",
			Type:      typ,
			Title:     string(typ),
			PostingID: &postingID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := repo.List(ctx, "alice", notification.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, notification.TypeMeetingProposed, all[0].Type)
	require.Equal(t, "p1", *all[0].PostingID)
	require.Nil(t, all[0].ApplicationID)

	require.NoError(t, repo.MarkRead(ctx, "alice", string(notification.TypeMatchApplied)))
	require.ErrorIs(t, repo.MarkRead(ctx, "bob", string(notification.TypeMeetingProposed)), repository.ErrNotFound)

	unread, err := repo.List(ctx, "alice", notification.ListOptions{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 2)

	page, err := repo.List(ctx, "alice", notification.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, notification.TypeMatchApplied, page[0].Type)
	require.True(t, page[0].Read)
}
