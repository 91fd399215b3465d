package notification

import "errors"

var (
	// ErrNotificationNotFound indicates the notification doesn't exist for the actor.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrInvalidInput indicates a notification without a recipient or type.
	ErrInvalidInput = errors.New("invalid notification input")
)
