package matching

import "time"

// Status represents the lifecycle state of a match.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApplied  Status = "applied"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Breakdown holds the named sub-scores behind a match score.
type Breakdown struct {
	Semantic        float64 `json:"semantic"`
	SkillsOverlap   float64 `json:"skills_overlap"`
	ExperienceMatch float64 `json:"experience_match"`
	CommitmentMatch float64 `json:"commitment_match"`
}

// Match is a computed pairing between a profile and a posting.
type Match struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	PostingID string    `json:"posting_id"`
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"score_breakdown"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RankedMatch is the list view of a match.
type RankedMatch struct {
	MatchID        string    `json:"matchId"`
	ProfileID      string    `json:"profileId"`
	PostingID      string    `json:"postingId"`
	Score          float64   `json:"score"`
	ScoreBreakdown Breakdown `json:"scoreBreakdown"`
	Status         Status    `json:"status"`
}

func ranked(m *Match) RankedMatch {
	return RankedMatch{
		MatchID:        m.ID,
		ProfileID:      m.ProfileID,
		PostingID:      m.PostingID,
		Score:          m.Score,
		ScoreBreakdown: m.Breakdown,
		Status:         m.Status,
	}
}
