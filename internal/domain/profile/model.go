package profile

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// LocationMode states where a person is willing to work.
type LocationMode string

const (
	LocationRemote   LocationMode = "remote"
	LocationInPerson LocationMode = "in_person"
	LocationEither   LocationMode = "either"
)

// Skill is a skill node held by a profile at a proficiency level 0..10.
type Skill struct {
	SkillID string `json:"skill_id"`
	Level   int    `json:"level"`
}

// Location is an optional coordinate plus a working mode.
type Location struct {
	Lat  *float64     `json:"lat,omitempty"`
	Lng  *float64     `json:"lng,omitempty"`
	Mode LocationMode `json:"mode"`
}

// NotificationPrefs toggles in-app notifications per category.
type NotificationPrefs struct {
	Applications bool `json:"applications"`
	Matches      bool `json:"matches"`
	Meetings     bool `json:"meetings"`
}

// DefaultNotificationPrefs enables every category.
var DefaultNotificationPrefs = NotificationPrefs{Applications: true, Matches: true, Meetings: true}

// Profile is a person using MeshIt.
type Profile struct {
	ID              string            `json:"id"`
	DisplayName     string            `json:"display_name"`
	Bio             string            `json:"bio"`
	Skills          []Skill           `json:"skills"`
	Interests       []string          `json:"interests"`
	Languages       []string          `json:"languages"`
	Location        Location          `json:"location"`
	Timezone        string            `json:"timezone"`
	HoursPerWeek    int               `json:"hours_per_week"`
	ExperienceLevel int               `json:"experience_level"`
	NotifyPrefs     NotificationPrefs `json:"notification_prefs"`
	Embedding       *pgvector.Vector  `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
