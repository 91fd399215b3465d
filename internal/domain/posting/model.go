package posting

import (
	"slices"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Status represents the lifecycle state of a posting.
type Status string

const (
	StatusOpen    Status = "open"
	StatusFilled  Status = "filled"
	StatusClosed  Status = "closed"
	StatusExpired Status = "expired"
)

// Mode is how a team works together.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeHybrid Mode = "hybrid"
	ModeOnsite Mode = "onsite"
)

// RequiredSkill is a skill node a posting asks for, with an optional minimum level.
type RequiredSkill struct {
	SkillID  string `json:"skill_id"`
	MinLevel *int   `json:"min_level,omitempty"`
}

// Posting is a collaboration opportunity created by a profile.
type Posting struct {
	ID              string           `json:"id"`
	CreatorID       string           `json:"creator_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	Mode            Mode             `json:"mode"`
	Location        string           `json:"location,omitempty"`
	RequiredSkills  []RequiredSkill  `json:"required_skills"`
	TeamSizeMin     int              `json:"team_size_min"`
	TeamSizeMax     int              `json:"team_size_max"`
	HoursPerWeek    int              `json:"hours_per_week"`
	ExperienceLevel int              `json:"experience_level"`
	AutoAccept      bool             `json:"auto_accept"`
	Status          Status           `json:"status"`
	ExpiresAt       time.Time        `json:"expires_at"`
	Embedding       *pgvector.Vector `json:"-"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Team is the set of people working on a posting: its creator plus accepted applicants.
type Team struct {
	PostingID string
	CreatorID string
	MemberIDs []string
}

// Has reports whether profileID belongs to the team.
func (t *Team) Has(profileID string) bool {
	if t == nil || profileID == "" {
		return false
	}
	return t.CreatorID == profileID || slices.Contains(t.MemberIDs, profileID)
}

// Everyone returns the creator followed by the accepted members.
func (t *Team) Everyone() []string {
	out := make([]string, 0, len(t.MemberIDs)+1)
	out = append(out, t.CreatorID)
	for _, id := range t.MemberIDs {
		if id != t.CreatorID {
			out = append(out, id)
		}
	}
	return out
}
