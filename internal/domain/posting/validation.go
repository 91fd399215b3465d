package posting

import (
	"strings"
	"time"
)

// ValidateCreateInput validates fields required to create a posting.
func ValidateCreateInput(req CreateRequest, now time.Time) error {
	if strings.TrimSpace(req.Title) == "" {
		return invalidInput("title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return invalidInput("description is required")
	}
	switch req.Mode {
	case "", ModeRemote, ModeHybrid, ModeOnsite:
	default:
		return invalidInput("unknown mode %q", req.Mode)
	}
	if req.TeamSizeMin < 1 {
		return invalidInput("team_size_min must be at least 1")
	}
	if req.TeamSizeMax < req.TeamSizeMin {
		return invalidInput("team_size_max %d is below team_size_min %d", req.TeamSizeMax, req.TeamSizeMin)
	}
	if req.HoursPerWeek < 0 || req.HoursPerWeek > 168 {
		return invalidInput("hours_per_week must be within 0..168")
	}
	if req.ExperienceLevel < 0 || req.ExperienceLevel > 10 {
		return invalidInput("experience_level must be within 0..10")
	}
	seen := make(map[string]struct{}, len(req.RequiredSkills))
	for _, skill := range req.RequiredSkills {
		if strings.TrimSpace(skill.SkillID) == "" {
			return invalidInput("required skill without skill_id")
		}
		if _, dup := seen[skill.SkillID]; dup {
			return invalidInput("skill %s listed twice", skill.SkillID)
		}
		seen[skill.SkillID] = struct{}{}
		if skill.MinLevel != nil && (*skill.MinLevel < 0 || *skill.MinLevel > 10) {
			return invalidInput("min_level for %s must be within 0..10", skill.SkillID)
		}
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return invalidInput("expires_at must be in the future")
	}
	return nil
}

// ValidateTransition validates a requested status change.
func ValidateTransition(from, to Status) error {
	valid := false
	switch from {
	case StatusOpen:
		switch to {
		case StatusFilled, StatusClosed, StatusExpired:
			valid = true
		}
	case StatusFilled:
		if to == StatusOpen || to == StatusClosed {
			valid = true
		}
	case StatusExpired:
		if to == StatusOpen {
			valid = true
		}
	}

	if !valid {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
