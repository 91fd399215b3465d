package meeting

import "time"

// Status represents the lifecycle state of a meeting proposal.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Response is one team member's answer to a proposal.
type Response struct {
	ProfileID   string    `json:"profile_id"`
	Available   bool      `json:"available"`
	RespondedAt time.Time `json:"responded_at"`
}

// Proposal is a suggested meeting time for a posting's team.
type Proposal struct {
	ID         string     `json:"id"`
	PostingID  string     `json:"posting_id"`
	ProposerID string     `json:"proposer_id"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     time.Time  `json:"ends_at"`
	Status     Status     `json:"status"`
	Responses  []Response `json:"responses"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
