package availability

import (
	"cmp"
	"slices"
)

// SortIntervals orders intervals by start, then by end.
func SortIntervals(ivs []Interval) {
	slices.SortFunc(ivs, func(a, b Interval) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})
}

// Merge returns a sorted copy with empty intervals dropped and overlapping or
// touching intervals coalesced.
func Merge(ivs []Interval) []Interval {
	sorted := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	SortIntervals(sorted)

	var out []Interval
	for _, iv := range sorted {
		if n := len(out); n > 0 && iv.Start <= out[n-1].End {
			out[n-1].End = max(out[n-1].End, iv.End)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Intersect returns the minutes present in both a and b. Inputs are coalesced
// first, then walked with two pointers, advancing whichever interval ends first.
func Intersect(a, b []Interval) []Interval {
	a, b = Merge(a), Merge(b)

	var out []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := max(a[i].Start, b[j].Start)
		hi := min(a[i].End, b[j].End)
		if lo < hi {
			out = append(out, Interval{Start: lo, End: hi})
		}
		switch {
		case a[i].End < b[j].End:
			i++
		case b[j].End < a[i].End:
			j++
		default:
			i++
			j++
		}
	}
	return out
}

// Common folds Intersect across every party. No parties, or any party without
// availability, yields an empty result.
func Common(parties ...[]Interval) []Interval {
	if len(parties) == 0 {
		return nil
	}
	acc := Merge(parties[0])
	for _, party := range parties[1:] {
		if len(acc) == 0 {
			break
		}
		acc = Intersect(acc, party)
	}
	return acc
}

// Subtract removes busy minutes from avail. A busy interval inside an
// available one leaves up to two fragments.
func Subtract(avail, busy []Interval) []Interval {
	avail, busy = Merge(avail), Merge(busy)

	var out []Interval
	j := 0
	for _, a := range avail {
		for j < len(busy) && busy[j].End <= a.Start {
			j++
		}
		cur := a.Start
		for k := j; k < len(busy) && busy[k].Start < a.End; k++ {
			if busy[k].Start > cur {
				out = append(out, Interval{Start: cur, End: busy[k].Start})
			}
			cur = max(cur, busy[k].End)
		}
		if cur < a.End {
			out = append(out, Interval{Start: cur, End: a.End})
		}
	}
	return out
}

// ToCommonWindows splits intervals at day boundaries into per-day windows.
func ToCommonWindows(ivs []Interval) []CommonWindow {
	out := make([]CommonWindow, 0, len(ivs))
	for _, iv := range ivs {
		for start := iv.Start; start < iv.End; {
			day := start / MinutesPerDay
			end := min(iv.End, (day+1)*MinutesPerDay)
			out = append(out, CommonWindow{
				DayOfWeek:    day,
				StartMinutes: start - day*MinutesPerDay,
				EndMinutes:   end - day*MinutesPerDay,
			})
			start = end
		}
	}
	return out
}
