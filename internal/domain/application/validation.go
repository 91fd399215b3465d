package application

// ValidateTransition validates a requested status change.
func ValidateTransition(from, to Status) error {
	valid := false
	switch from {
	case StatusPending:
		switch to {
		case StatusAccepted, StatusRejected, StatusWaitlisted, StatusWithdrawn:
			valid = true
		}
	case StatusWaitlisted:
		switch to {
		case StatusAccepted, StatusRejected, StatusWithdrawn:
			valid = true
		}
	case StatusAccepted:
		valid = to == StatusWithdrawn
	}

	if !valid {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
