package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/repository"
	"github.com/meshit/meshit/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type availabilityFixture struct {
	windows *mocks.WindowRepository
	busy    *mocks.BusyBlockRepository
	teams   *mocks.TeamRepository
	zones   *mocks.TimezoneRepository
	svc     *availability.Service
}

func newAvailabilityFixture(split bool) *availabilityFixture {
	f := &availabilityFixture{
		windows: &mocks.WindowRepository{},
		busy:    &mocks.BusyBlockRepository{},
		teams:   &mocks.TeamRepository{},
		zones:   &mocks.TimezoneRepository{},
	}
	f.svc = availability.NewService(f.windows, f.busy, f.teams, f.zones, availability.Normalizer{SplitMidnight: split}, nil)
	return f
}

func TestCommonAvailability(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)

	team := &posting.Team{PostingID: "post1", CreatorID: "alice", MemberIDs: []string{"bob"}}
	f.teams.On("Team", ctx, "post1").Return(team, nil)
	f.zones.On("Timezone", ctx, mock.Anything).Return("UTC", nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "alice").
		Return([]availability.Window{recurring(0, 540, 720)}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "bob").
		Return([]availability.Window{recurring(0, 600, 780)}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerPosting, "post1").
		Return([]availability.Window(nil), nil)
	f.busy.On("ListByProfile", ctx, "alice").Return([]availability.BusyBlock(nil), nil)
	f.busy.On("ListByProfile", ctx, "bob").
		Return([]availability.BusyBlock{{ProfileID: "bob", Range: iv(630, 660)}}, nil)

	got, err := f.svc.CommonAvailability(ctx, "bob", "post1", availability.ScopeRecurring)
	require.NoError(t, err)
	require.Equal(t, []availability.CommonWindow{
		{DayOfWeek: 0, StartMinutes: 600, EndMinutes: 630},
		{DayOfWeek: 0, StartMinutes: 660, EndMinutes: 720},
	}, got)
}

func TestCommonAvailability_PostingWindowsNarrowResult(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)

	f.teams.On("Team", ctx, "post1").Return(&posting.Team{PostingID: "post1", CreatorID: "alice"}, nil)
	f.zones.On("Timezone", ctx, "alice").Return("", nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "alice").
		Return([]availability.Window{recurring(2, 0, 1440)}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerPosting, "post1").
		Return([]availability.Window{recurring(2, 1080, 1200)}, nil)
	f.busy.On("ListByProfile", ctx, "alice").Return([]availability.BusyBlock(nil), nil)

	got, err := f.svc.CommonAvailability(ctx, "alice", "post1", availability.ScopeRecurring)
	require.NoError(t, err)
	require.Equal(t, []availability.CommonWindow{{DayOfWeek: 2, StartMinutes: 1080, EndMinutes: 1200}}, got)
}

func TestCommonAvailability_EmptyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)

	f.teams.On("Team", ctx, "post1").Return(&posting.Team{PostingID: "post1", CreatorID: "alice", MemberIDs: []string{"bob"}}, nil)
	f.zones.On("Timezone", ctx, mock.Anything).Return("UTC", nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "alice").
		Return([]availability.Window{recurring(0, 540, 600)}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "bob").
		Return([]availability.Window{recurring(1, 540, 600)}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerPosting, "post1").Return([]availability.Window(nil), nil)
	f.busy.On("ListByProfile", ctx, mock.Anything).Return([]availability.BusyBlock(nil), nil)

	got, err := f.svc.CommonAvailability(ctx, "alice", "post1", availability.ScopeRecurring)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func specific(start, end time.Time) availability.Window {
	return availability.Window{Kind: availability.KindSpecific, StartsAt: start, EndsAt: end}
}

func TestCommonAvailability_ThisWeek(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)
	// Wednesday; the week runs from Monday 2026-01-05 to Monday 2026-01-12.
	f.svc.SetClock(func() time.Time { return time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC) })

	at := func(day, hour int) time.Time { return time.Date(2026, 1, day, hour, 0, 0, 0, time.UTC) }

	f.teams.On("Team", ctx, "post1").Return(&posting.Team{PostingID: "post1", CreatorID: "alice", MemberIDs: []string{"bob"}}, nil)
	f.zones.On("Timezone", ctx, mock.Anything).Return("UTC", nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "alice").Return([]availability.Window{
		recurring(0, 540, 720),
		specific(at(7, 18), at(7, 20)),
		specific(at(14, 8), at(14, 10)), // next week
	}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "bob").Return([]availability.Window{
		recurring(0, 600, 780),
		specific(at(7, 17), at(7, 21)),
		specific(at(14, 8), at(14, 10)), // next week
	}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerPosting, "post1").Return([]availability.Window(nil), nil)
	f.busy.On("ListByProfile", ctx, "alice").Return([]availability.BusyBlock(nil), nil)
	f.busy.On("ListByProfile", ctx, "bob").
		Return([]availability.BusyBlock{{ProfileID: "bob", Range: iv(2*1440+1140, 2*1440+1170)}}, nil)

	got, err := f.svc.CommonAvailability(ctx, "alice", "post1", availability.ScopeThisWeek)
	require.NoError(t, err)
	require.Equal(t, []availability.CommonWindow{
		{DayOfWeek: 0, StartMinutes: 600, EndMinutes: 720},
		{DayOfWeek: 2, StartMinutes: 1080, EndMinutes: 1140},
		{DayOfWeek: 2, StartMinutes: 1170, EndMinutes: 1200},
	}, got)

	// Without the week scope only the recurring slots count.
	got, err = f.svc.CommonAvailability(ctx, "alice", "post1", availability.ScopeRecurring)
	require.NoError(t, err)
	require.Equal(t, []availability.CommonWindow{{DayOfWeek: 0, StartMinutes: 600, EndMinutes: 720}}, got)
}

func TestCommonAvailability_SkipsWindowsBrokenByTimezone(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)
	f.svc.SetClock(func() time.Time { return time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC) })

	f.teams.On("Team", ctx, "post1").Return(&posting.Team{PostingID: "post1", CreatorID: "alice", MemberIDs: []string{"bob"}}, nil)
	f.zones.On("Timezone", ctx, "alice").Return("UTC", nil)
	// Bob saved 22:00-24:00 while on UTC. In Berlin it runs 23:00-01:00 and
	// crosses midnight, so it is dropped while his other windows still count.
	f.zones.On("Timezone", ctx, "bob").Return("Europe/Berlin", nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "alice").
		Return([]availability.Window{recurring(0, 540, 720)}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerProfile, "bob").Return([]availability.Window{
		recurring(0, 600, 780),
		specific(time.Date(2026, 1, 7, 22, 0, 0, 0, time.UTC), time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)),
	}, nil)
	f.windows.On("ListByOwner", ctx, availability.OwnerPosting, "post1").Return([]availability.Window(nil), nil)
	f.busy.On("ListByProfile", ctx, mock.Anything).Return([]availability.BusyBlock(nil), nil)

	got, err := f.svc.CommonAvailability(ctx, "alice", "post1", availability.ScopeThisWeek)
	require.NoError(t, err)
	require.Equal(t, []availability.CommonWindow{{DayOfWeek: 0, StartMinutes: 600, EndMinutes: 720}}, got)
}

func TestCommonAvailability_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown posting", func(t *testing.T) {
		f := newAvailabilityFixture(false)
		f.teams.On("Team", ctx, "missing").Return((*posting.Team)(nil), repository.ErrNotFound)

		_, err := f.svc.CommonAvailability(ctx, "alice", "missing", availability.ScopeRecurring)
		require.ErrorIs(t, err, availability.ErrPostingNotFound)
	})

	t.Run("not on team", func(t *testing.T) {
		f := newAvailabilityFixture(false)
		f.teams.On("Team", ctx, "post1").Return(&posting.Team{PostingID: "post1", CreatorID: "alice"}, nil)

		_, err := f.svc.CommonAvailability(ctx, "mallory", "post1", availability.ScopeRecurring)
		require.ErrorIs(t, err, availability.ErrForbidden)
	})
}

func TestSetProfileWindows(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)

	f.zones.On("Timezone", ctx, "alice").Return("UTC", nil)
	f.windows.On("ReplaceForOwner", ctx, availability.OwnerProfile, "alice", mock.MatchedBy(func(ws []availability.Window) bool {
		return len(ws) == 1 && ws[0].OwnerID == "alice" && ws[0].ID != "" && ws[0].Kind == availability.KindRecurring
	})).Return(nil)

	saved, err := f.svc.SetProfileWindows(ctx, "alice", []availability.Window{{DayOfWeek: 4, StartMinutes: 600, EndMinutes: 700}})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, availability.OwnerProfile, saved[0].OwnerKind)
	f.windows.AssertExpectations(t)
}

func TestSetProfileWindows_RejectsMidnightCrossingUnlessSplitting(t *testing.T) {
	ctx := context.Background()

	f := newAvailabilityFixture(false)
	f.zones.On("Timezone", ctx, "alice").Return("UTC", nil)
	_, err := f.svc.SetProfileWindows(ctx, "alice", []availability.Window{recurring(4, 1320, 60)})
	require.ErrorIs(t, err, availability.ErrInvalidWindow)
	f.windows.AssertNotCalled(t, "ReplaceForOwner", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	f = newAvailabilityFixture(true)
	f.zones.On("Timezone", ctx, "alice").Return("UTC", nil)
	f.windows.On("ReplaceForOwner", ctx, availability.OwnerProfile, "alice", mock.Anything).Return(nil)
	_, err = f.svc.SetProfileWindows(ctx, "alice", []availability.Window{recurring(4, 1320, 60)})
	require.NoError(t, err)
}

func TestSetQuickAvailability_CoalescesBuckets(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)

	f.zones.On("Timezone", ctx, "alice").Return("UTC", nil)
	f.windows.On("ReplaceForOwner", ctx, availability.OwnerProfile, "alice", mock.Anything).Return(nil)

	saved, err := f.svc.SetQuickAvailability(ctx, "alice", []int{0, 1},
		[]availability.Bucket{availability.BucketMorning, availability.BucketAfternoon, availability.BucketEvening})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	require.Equal(t, 0, saved[0].DayOfWeek)
	require.Equal(t, 360, saved[0].StartMinutes)
	require.Equal(t, 1440, saved[0].EndMinutes)
	require.Equal(t, 1, saved[1].DayOfWeek)
}

func TestSetPostingWindows_CreatorOnly(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)

	f.teams.On("Team", ctx, "post1").Return(&posting.Team{PostingID: "post1", CreatorID: "alice", MemberIDs: []string{"bob"}}, nil)

	_, err := f.svc.SetPostingWindows(ctx, "bob", "post1", []availability.Window{recurring(0, 600, 660)})
	require.ErrorIs(t, err, availability.ErrForbidden)
}

func TestSyncBusyBlocks(t *testing.T) {
	ctx := context.Background()
	f := newAvailabilityFixture(false)

	f.busy.On("ReplaceForConnection", ctx, "alice", "gcal-1", mock.MatchedBy(func(blocks []availability.BusyBlock) bool {
		return len(blocks) == 2 && blocks[0].Range == iv(600, 660) && blocks[1].ConnectionID == "gcal-1"
	})).Return(nil)

	res, err := f.svc.SyncBusyBlocks(ctx, "alice", "gcal-1", []string{"[600,660)", "[9,8)", "[1500,1560]"})
	require.NoError(t, err)
	require.Equal(t, &availability.SyncResult{Stored: 2, Discarded: 1}, res)
	f.busy.AssertExpectations(t)
}

func TestSyncBusyBlocks_RequiresConnection(t *testing.T) {
	f := newAvailabilityFixture(false)
	_, err := f.svc.SyncBusyBlocks(context.Background(), "alice", "", nil)
	require.ErrorIs(t, err, availability.ErrInvalidInput)
}

func TestParseScope(t *testing.T) {
	scope, err := availability.ParseScope("")
	require.NoError(t, err)
	require.Equal(t, availability.ScopeRecurring, scope)

	scope, err = availability.ParseScope("this_week")
	require.NoError(t, err)
	require.Equal(t, availability.ScopeThisWeek, scope)

	_, err = availability.ParseScope("forever")
	require.ErrorIs(t, err, availability.ErrInvalidInput)
}
