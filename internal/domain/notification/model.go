package notification

import "time"

// Type represents the kind of event a notification announces.
type Type string

const (
	TypeApplicationReceived   Type = "application_received"
	TypeApplicationAccepted   Type = "application_accepted"
	TypeApplicationRejected   Type = "application_rejected"
	TypeApplicationWaitlisted Type = "application_waitlisted"
	TypeApplicationPromoted   Type = "application_promoted"
	TypeApplicationWithdrawn  Type = "application_withdrawn"
	TypeVacancyOpened         Type = "vacancy_opened"
	TypeMatchApplied          Type = "match_applied"
	TypeMatchAccepted         Type = "match_accepted"
	TypeMatchDeclined         Type = "match_declined"
	TypeMeetingProposed       Type = "meeting_proposed"
	TypeMeetingConfirmed      Type = "meeting_confirmed"
	TypeMeetingCancelled      Type = "meeting_cancelled"
)

// Category groups types for notification preferences.
type Category string

const (
	CategoryApplications Category = "applications"
	CategoryMatches      Category = "matches"
	CategoryMeetings     Category = "meetings"
)

// Category returns the preference bucket the type falls in.
func (t Type) Category() Category {
	switch t {
	case TypeMatchApplied, TypeMatchAccepted, TypeMatchDeclined:
		return CategoryMatches
	case TypeMeetingProposed, TypeMeetingConfirmed, TypeMeetingCancelled:
		return CategoryMeetings
	default:
		return CategoryApplications
	}
}

// Notification is an in-app message for one profile.
type Notification struct {
	ID            string    `json:"id"`
	ProfileID     string    `json:"profile_id"`
	Type          Type      `json:"type"`
	Title         string    `json:"title"`
	Body          string    `json:"body,omitempty"`
	PostingID     *string   `json:"posting_id,omitempty"`
	ApplicationID *string   `json:"application_id,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}
