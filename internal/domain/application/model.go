package application

import "time"

// Status represents the lifecycle state of an application.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusWaitlisted Status = "waitlisted"
	StatusWithdrawn  Status = "withdrawn"
)

// Application is a request by one profile to join a posting's team.
type Application struct {
	ID          string    `json:"id"`
	PostingID   string    `json:"posting_id"`
	ApplicantID string    `json:"applicant_id"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AcceptRequest asks the store to accept an application if the posting has
// room. An empty CreatorID means the system is accepting on the posting's
// behalf (auto-accept and waitlist promotion).
type AcceptRequest struct {
	ApplicationID string
	CreatorID     string
	From          Status
	Now           time.Time
}

// AcceptResult reports an acceptance.
type AcceptResult struct {
	Application   *Application
	PostingFilled bool
}

// WithdrawRequest asks the store to withdraw an application and, when an
// accepted seat frees up, settle the waitlist in the same transaction.
type WithdrawRequest struct {
	ApplicationID     string
	ApplicantID       string
	From              Status
	PromoteWaitlisted bool
	Now               time.Time
}

// WithdrawResult reports what a withdrawal changed.
type WithdrawResult struct {
	Application *Application
	// Promoted is the waitlisted application accepted into the freed seat.
	Promoted *Application
	// WaitlistPending is set when someone is waitlisted but the posting does
	// not auto-accept, so the creator has to decide.
	WaitlistPending bool
	// PostingReopened is set when a filled posting went back to open.
	PostingReopened bool
}

// Vacancy is a posting with a free seat and someone waiting for it.
type Vacancy struct {
	PostingID string
	Accepted  int
	Capacity  int
	Waiting   int
}
