package availability

import (
	"fmt"
	"time"
)

// Weekly clock dimensions. A canonical value is day_of_week*1440 + minute_of_day
// with Monday as day 0.
const (
	MinutesPerDay  = 1440
	DaysPerWeek    = 7
	MinutesPerWeek = MinutesPerDay * DaysPerWeek
)

// Interval is a half-open [Start, End) range on the weekly clock.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the interval covers no minutes.
func (iv Interval) Empty() bool {
	return iv.End <= iv.Start
}

// String renders the canonical range text, e.g. "[600,720)".
func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.End)
}

// Bucket is a quick-mode slot of the day.
type Bucket string

const (
	BucketNight     Bucket = "night"
	BucketMorning   Bucket = "morning"
	BucketAfternoon Bucket = "afternoon"
	BucketEvening   Bucket = "evening"
)

var bucketMinutes = map[Bucket][2]int{
	BucketNight:     {0, 360},
	BucketMorning:   {360, 720},
	BucketAfternoon: {720, 1080},
	BucketEvening:   {1080, 1440},
}

// WindowKind distinguishes weekly repeating windows from one-off dates.
type WindowKind string

const (
	KindRecurring WindowKind = "recurring"
	KindSpecific  WindowKind = "specific"
)

// OwnerKind names the entity a window belongs to.
type OwnerKind string

const (
	OwnerProfile OwnerKind = "profile"
	OwnerPosting OwnerKind = "posting"
)

// Window is a declared availability window. Recurring windows use DayOfWeek
// and the minute fields; specific windows use Date and the UTC instants.
type Window struct {
	ID           string     `json:"id"`
	OwnerKind    OwnerKind  `json:"owner_kind"`
	OwnerID      string     `json:"owner_id"`
	Kind         WindowKind `json:"kind"`
	DayOfWeek    int        `json:"day_of_week"`
	StartMinutes int        `json:"start_minutes"`
	EndMinutes   int        `json:"end_minutes"`
	Date         string     `json:"date,omitempty"`
	StartsAt     time.Time  `json:"starts_at,omitzero"`
	EndsAt       time.Time  `json:"ends_at,omitzero"`
	CreatedAt    time.Time  `json:"created_at"`
}

// BusyBlock is a canonical range imported from an external calendar.
type BusyBlock struct {
	ID           string    `json:"id"`
	ProfileID    string    `json:"profile_id"`
	ConnectionID string    `json:"connection_id"`
	Range        Interval  `json:"range"`
	CreatedAt    time.Time `json:"created_at"`
}

// Scope selects which windows take part in an overlap computation.
type Scope string

const (
	// ScopeRecurring uses recurring windows only.
	ScopeRecurring Scope = "recurring"
	// ScopeThisWeek adds specific-date windows falling in the current week.
	ScopeThisWeek Scope = "this_week"
)

// CommonWindow is a shared slot on a single day.
type CommonWindow struct {
	DayOfWeek    int `json:"day_of_week"`
	StartMinutes int `json:"start_minutes"`
	EndMinutes   int `json:"end_minutes"`
}

// CommonResult is the body of a common-availability answer. Windows is never
// nil, so an empty result encodes as [].
type CommonResult struct {
	Windows []CommonWindow `json:"windows"`
}

// NewCommonResult wraps windows for the wire.
func NewCommonResult(windows []CommonWindow) CommonResult {
	if windows == nil {
		windows = []CommonWindow{}
	}
	return CommonResult{Windows: windows}
}

// SyncResult reports a busy-block sync.
type SyncResult struct {
	Stored    int `json:"stored"`
	Discarded int `json:"discarded"`
}
