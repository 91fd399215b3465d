package availability_test

import (
	"testing"
	"time"

	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/stretchr/testify/require"
)

func recurring(day, start, end int) availability.Window {
	return availability.Window{
		Kind:         availability.KindRecurring,
		DayOfWeek:    day,
		StartMinutes: start,
		EndMinutes:   end,
	}
}

func TestFromBuckets(t *testing.T) {
	n := availability.Normalizer{}

	got, err := n.FromBuckets([]int{2, 0}, []availability.Bucket{availability.BucketEvening, availability.BucketMorning})
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{
		iv(360, 720),
		iv(1080, 1440),
		iv(2*1440+360, 2*1440+720),
		iv(2*1440+1080, 2*1440+1440),
	}, got)

	_, err = n.FromBuckets([]int{7}, []availability.Bucket{availability.BucketNight})
	require.ErrorIs(t, err, availability.ErrInvalidWindow)

	_, err = n.FromBuckets([]int{1}, []availability.Bucket{"brunch"})
	require.ErrorIs(t, err, availability.ErrInvalidWindow)
}

func TestFromRecurring(t *testing.T) {
	n := availability.Normalizer{}

	got, err := n.FromRecurring(recurring(3, 600, 720))
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(3*1440+600, 3*1440+720)}, got)

	got, err = n.FromRecurring(recurring(6, 0, 1440))
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(6*1440, 7*1440)}, got)

	for _, w := range []availability.Window{
		recurring(-1, 0, 60),
		recurring(7, 0, 60),
		recurring(1, 1440, 1440),
		recurring(1, 0, 1441),
		recurring(1, 600, 600),
	} {
		_, err := n.FromRecurring(w)
		require.ErrorIs(t, err, availability.ErrInvalidWindow, "window %+v", w)
	}
}

func TestFromRecurring_MidnightCrossing(t *testing.T) {
	w := recurring(6, 1320, 120)

	_, err := availability.Normalizer{}.FromRecurring(w)
	require.ErrorIs(t, err, availability.ErrInvalidWindow)

	got, err := availability.Normalizer{SplitMidnight: true}.FromRecurring(w)
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(6*1440+1320, 7*1440), iv(0, 120)}, got)
}

func TestFromRecurring_IdempotentOnCanonical(t *testing.T) {
	n := availability.Normalizer{}
	for _, in := range []availability.Interval{iv(0, 1), iv(600, 720), iv(4*1440, 5*1440), iv(6*1440+1439, 7*1440)} {
		w, err := availability.RecurringWindow(in)
		require.NoError(t, err)

		got, err := n.FromRecurring(w)
		require.NoError(t, err)
		require.Equal(t, []availability.Interval{in}, got)
	}
}

func TestFromSpecific_UsesLocalClock(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Wednesday 2026-01-07 08:00-09:30 UTC is 09:00-10:30 in Berlin.
	w := availability.Window{
		Kind:     availability.KindSpecific,
		StartsAt: time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC),
	}

	got, err := availability.Normalizer{}.FromSpecific(w, berlin)
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(2*1440+540, 2*1440+630)}, got)
}

func TestFromSpecific_EndingAtMidnight(t *testing.T) {
	w := availability.Window{
		Kind:     availability.KindSpecific,
		StartsAt: time.Date(2026, 1, 11, 22, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
	}

	got, err := availability.Normalizer{}.FromSpecific(w, time.UTC)
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(6*1440+1320, 7*1440)}, got)
}

func TestFromSpecific_CrossingMidnight(t *testing.T) {
	w := availability.Window{
		Kind:     availability.KindSpecific,
		StartsAt: time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 1, 6, 1, 0, 0, 0, time.UTC),
	}

	_, err := availability.Normalizer{}.FromSpecific(w, time.UTC)
	require.ErrorIs(t, err, availability.ErrInvalidWindow)

	got, err := availability.Normalizer{SplitMidnight: true}.FromSpecific(w, time.UTC)
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(1380, 1440), iv(1440, 1500)}, got)
}

func TestNormalize_ScopeControlsSpecificWindows(t *testing.T) {
	now := time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC) // Wednesday
	windows := []availability.Window{
		recurring(0, 600, 660),
		{
			Kind:     availability.KindSpecific,
			StartsAt: time.Date(2026, 1, 8, 15, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 1, 8, 16, 0, 0, 0, time.UTC),
		},
		{
			Kind:     availability.KindSpecific,
			StartsAt: time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 1, 20, 16, 0, 0, 0, time.UTC),
		},
	}
	n := availability.Normalizer{}

	got, err := n.Normalize(windows, availability.NormalizeOptions{Scope: availability.ScopeRecurring, Now: now})
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(600, 660)}, got)

	got, err = n.Normalize(windows, availability.NormalizeOptions{Scope: availability.ScopeThisWeek, Now: now})
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(600, 660), iv(3*1440+900, 3*1440+960)}, got)
}

func TestNormalize_CoalescesTouchingWindows(t *testing.T) {
	got, err := availability.Normalizer{}.Normalize(
		[]availability.Window{recurring(1, 600, 660), recurring(1, 660, 720)},
		availability.NormalizeOptions{},
	)
	require.NoError(t, err)
	require.Equal(t, []availability.Interval{iv(1440+600, 1440+720)}, got)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want availability.Interval
	}{
		{in: "[600,720)", want: iv(600, 720)},
		{in: " [600, 720) ", want: iv(600, 720)},
		{in: "(599,720)", want: iv(600, 720)},
		{in: "[600,719]", want: iv(600, 720)},
		{in: "[8640,10080)", want: iv(8640, 10080)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := availability.ParseRange(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseRange_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"600,720",
		"{600,720}",
		"[600)",
		"[a,720)",
		"[600,b)",
		"[720,600)",
		"[600,600)",
		"[-10,20)",
		"[10080,10100)",
		"[1400,1500)",
		"[10000,100)",
	} {
		_, err := availability.ParseRange(in)
		require.ErrorIs(t, err, availability.ErrMalformedRange, "input %q", in)
	}
}

func TestParseRange_RoundTrip(t *testing.T) {
	for _, in := range []string{"[0,1)", "[600,720)", "[1440,2880)", "[10079,10080)"} {
		parsed, err := availability.ParseRange(in)
		require.NoError(t, err)
		require.Equal(t, in, parsed.String())

		again, err := availability.ParseRange(parsed.String())
		require.NoError(t, err)
		require.Equal(t, parsed, again)
	}
}

func TestParseRanges_DiscardsMalformed(t *testing.T) {
	ivs, errs := availability.ParseRanges([]string{"[0,60)", "garbage", "[1400,1500)", "[2000,2100)"})
	require.Equal(t, []availability.Interval{iv(0, 60), iv(2000, 2100)}, ivs)
	require.Len(t, errs, 2)
}

func TestStartOfWeek(t *testing.T) {
	sunday := time.Date(2026, 1, 11, 18, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), availability.StartOfWeek(sunday))

	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	require.Equal(t, monday, availability.StartOfWeek(monday))
}
