package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Normalizer converts window representations into canonical intervals.
//
// SplitMidnight controls windows whose end falls on the following day. When
// false such windows are rejected; when true they are split at midnight into
// a piece on each day.
type Normalizer struct {
	SplitMidnight bool
}

// NormalizeOptions configures Normalize.
type NormalizeOptions struct {
	// Location is the owner's declared timezone; nil means UTC.
	Location *time.Location
	Scope    Scope
	// Now anchors ScopeThisWeek.
	Now time.Time
}

// FromBuckets expands a quick-mode selection into one interval per (day, bucket).
func (n Normalizer) FromBuckets(days []int, buckets []Bucket) ([]Interval, error) {
	out := make([]Interval, 0, len(days)*len(buckets))
	for _, day := range days {
		if day < 0 || day >= DaysPerWeek {
			return nil, fmt.Errorf("%w: day_of_week %d outside 0..6", ErrInvalidWindow, day)
		}
		for _, b := range buckets {
			span, ok := bucketMinutes[b]
			if !ok {
				return nil, fmt.Errorf("%w: unknown bucket %q", ErrInvalidWindow, b)
			}
			base := day * MinutesPerDay
			out = append(out, Interval{Start: base + span[0], End: base + span[1]})
		}
	}
	SortIntervals(out)
	return out, nil
}

// FromRecurring maps a recurring window onto the weekly clock.
func (n Normalizer) FromRecurring(w Window) ([]Interval, error) {
	if w.DayOfWeek < 0 || w.DayOfWeek >= DaysPerWeek {
		return nil, fmt.Errorf("%w: day_of_week %d outside 0..6", ErrInvalidWindow, w.DayOfWeek)
	}
	if w.StartMinutes < 0 || w.StartMinutes >= MinutesPerDay {
		return nil, fmt.Errorf("%w: start_minutes %d outside 0..1439", ErrInvalidWindow, w.StartMinutes)
	}
	if w.EndMinutes < 0 || w.EndMinutes > MinutesPerDay {
		return nil, fmt.Errorf("%w: end_minutes %d outside 0..1440", ErrInvalidWindow, w.EndMinutes)
	}

	base := w.DayOfWeek * MinutesPerDay
	if w.EndMinutes > w.StartMinutes {
		return []Interval{{Start: base + w.StartMinutes, End: base + w.EndMinutes}}, nil
	}
	if !n.SplitMidnight {
		return nil, fmt.Errorf("%w: end_minutes %d not after start_minutes %d", ErrInvalidWindow, w.EndMinutes, w.StartMinutes)
	}

	out := []Interval{{Start: base + w.StartMinutes, End: base + MinutesPerDay}}
	if w.EndMinutes > 0 {
		next := ((w.DayOfWeek + 1) % DaysPerWeek) * MinutesPerDay
		out = append(out, Interval{Start: next, End: next + w.EndMinutes})
	}
	return out, nil
}

// FromSpecific places a one-off window on the weekly clock using the owner's
// local day and minute.
func (n Normalizer) FromSpecific(w Window, loc *time.Location) ([]Interval, error) {
	if loc == nil {
		loc = time.UTC
	}
	if !w.EndsAt.After(w.StartsAt) {
		return nil, fmt.Errorf("%w: ends_at not after starts_at", ErrInvalidWindow)
	}
	if w.EndsAt.Sub(w.StartsAt) > DaysPerWeek*24*time.Hour {
		return nil, fmt.Errorf("%w: specific window longer than a week", ErrInvalidWindow)
	}

	start := w.StartsAt.In(loc)
	end := w.EndsAt.In(loc)
	boundary := nextMidnight(start)

	if !end.After(boundary) {
		endMin := MinutesPerDay
		if end.Before(boundary) {
			endMin = minuteOfDay(end)
		}
		base := weekday(start) * MinutesPerDay
		iv := Interval{Start: base + minuteOfDay(start), End: base + endMin}
		if iv.Empty() {
			return nil, fmt.Errorf("%w: specific window shorter than a minute", ErrInvalidWindow)
		}
		return []Interval{iv}, nil
	}
	if !n.SplitMidnight {
		return nil, fmt.Errorf("%w: specific window crosses midnight", ErrInvalidWindow)
	}

	var out []Interval
	for cur := start; cur.Before(end); {
		next := nextMidnight(cur)
		endMin := MinutesPerDay
		if end.Before(next) {
			endMin = minuteOfDay(end)
			next = end
		}
		base := weekday(cur) * MinutesPerDay
		if iv := (Interval{Start: base + minuteOfDay(cur), End: base + endMin}); !iv.Empty() {
			out = append(out, iv)
		}
		cur = next
	}
	return out, nil
}

// Normalize converts a set of windows owned by one party into a coalesced,
// sorted interval list. Specific windows only take part under ScopeThisWeek,
// clipped to the current week.
func (n Normalizer) Normalize(windows []Window, opts NormalizeOptions) ([]Interval, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var weekStart, weekEnd time.Time
	if opts.Scope == ScopeThisWeek {
		weekStart = StartOfWeek(opts.Now.In(loc))
		weekEnd = weekStart.AddDate(0, 0, DaysPerWeek)
	}

	var out []Interval
	for _, w := range windows {
		var (
			ivs []Interval
			err error
		)
		switch w.Kind {
		case KindRecurring, "":
			ivs, err = n.FromRecurring(w)
		case KindSpecific:
			if opts.Scope != ScopeThisWeek {
				continue
			}
			if !w.StartsAt.Before(weekEnd) || !w.EndsAt.After(weekStart) {
				continue
			}
			clipped := w
			if clipped.StartsAt.Before(weekStart) {
				clipped.StartsAt = weekStart
			}
			if clipped.EndsAt.After(weekEnd) {
				clipped.EndsAt = weekEnd
			}
			ivs, err = n.FromSpecific(clipped, loc)
		default:
			err = fmt.Errorf("%w: unknown kind %q", ErrInvalidWindow, w.Kind)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ivs...)
	}
	return Merge(out), nil
}

// Validate checks a window without producing intervals.
func (n Normalizer) Validate(w Window, loc *time.Location) error {
	var err error
	switch w.Kind {
	case KindRecurring:
		_, err = n.FromRecurring(w)
	case KindSpecific:
		_, err = n.FromSpecific(w, loc)
	default:
		err = fmt.Errorf("%w: unknown kind %q", ErrInvalidWindow, w.Kind)
	}
	return err
}

// RecurringWindow converts a canonical interval that lies within one day back
// into a recurring window.
func RecurringWindow(iv Interval) (Window, error) {
	if err := validateCanonical(iv); err != nil {
		return Window{}, err
	}
	day := iv.Start / MinutesPerDay
	return Window{
		Kind:         KindRecurring,
		DayOfWeek:    day,
		StartMinutes: iv.Start - day*MinutesPerDay,
		EndMinutes:   iv.End - day*MinutesPerDay,
	}, nil
}

// ParseRange parses canonical range text such as "[600,720)". Either bracket
// style is accepted on either side: an exclusive lower bound or inclusive
// upper bound is shifted to the half-open form. Ranges that do not lie
// within a single day of the week are rejected.
func ParseRange(text string) (Interval, error) {
	s := strings.TrimSpace(text)
	if len(s) < 5 {
		return Interval{}, fmt.Errorf("%w: %q", ErrMalformedRange, text)
	}
	lowerBracket, upperBracket := s[0], s[len(s)-1]
	if (lowerBracket != '[' && lowerBracket != '(') || (upperBracket != ')' && upperBracket != ']') {
		return Interval{}, fmt.Errorf("%w: %q has no range brackets", ErrMalformedRange, text)
	}

	bounds := strings.Split(s[1:len(s)-1], ",")
	if len(bounds) != 2 {
		return Interval{}, fmt.Errorf("%w: %q needs two bounds", ErrMalformedRange, text)
	}
	lower, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return Interval{}, fmt.Errorf("%w: lower bound of %q: %v", ErrMalformedRange, text, err)
	}
	upper, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return Interval{}, fmt.Errorf("%w: upper bound of %q: %v", ErrMalformedRange, text, err)
	}
	if lowerBracket == '(' {
		lower++
	}
	if upperBracket == ']' {
		upper++
	}

	iv := Interval{Start: lower, End: upper}
	if err := validateCanonical(iv); err != nil {
		return Interval{}, fmt.Errorf("%w (from %q)", err, text)
	}
	return iv, nil
}

// ParseRanges parses every text, keeping the valid intervals and reporting
// one error per discarded entry.
func ParseRanges(texts []string) ([]Interval, []error) {
	out := make([]Interval, 0, len(texts))
	var errs []error
	for _, text := range texts {
		iv, err := ParseRange(text)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, iv)
	}
	return out, errs
}

// StartOfWeek returns Monday 00:00 of t's week in t's location.
func StartOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-weekday(t), 0, 0, 0, 0, t.Location())
}

func validateCanonical(iv Interval) error {
	if iv.Start < 0 || iv.Empty() {
		return fmt.Errorf("%w: %s is empty or negative", ErrMalformedRange, iv)
	}
	day := iv.Start / MinutesPerDay
	if day >= DaysPerWeek {
		return fmt.Errorf("%w: day_of_week %d outside 0..6", ErrMalformedRange, day)
	}
	if iv.End-day*MinutesPerDay > MinutesPerDay {
		return fmt.Errorf("%w: %s runs past the end of its day", ErrMalformedRange, iv)
	}
	return nil
}

// weekday returns t's day of week with Monday as 0.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % DaysPerWeek
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
