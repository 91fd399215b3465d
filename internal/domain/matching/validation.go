package matching

// ValidateTransition validates a requested status change.
func ValidateTransition(from, to Status) error {
	valid := false
	switch from {
	case StatusPending:
		valid = to == StatusApplied
	case StatusApplied:
		valid = to == StatusAccepted || to == StatusDeclined
	}

	if !valid {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
