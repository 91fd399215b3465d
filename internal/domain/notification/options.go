package notification

// ListOptions provides filtering options for listing notifications.
type ListOptions struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}
