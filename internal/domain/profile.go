package domain

import "time"

// PreparationLevel represents how far along a user is in their preparation
type PreparationLevel string

const (
	PreparationBeginner     PreparationLevel = "beginner"
	PreparationIntermediate PreparationLevel = "intermediate"
	PreparationAdvanced     PreparationLevel = "advanced"
)

// IsValid checks if the PreparationLevel is valid
func (l PreparationLevel) IsValid() bool {
	switch l {
	case PreparationBeginner, PreparationIntermediate, PreparationAdvanced:
		return true
	default:
		return false
	}
}

// UserProfile is a read-only snapshot of the signals used for personalization.
type UserProfile struct {
	UserID           string
	FocusAreas       []string
	TargetCompanies  []string
	PreparationLevel PreparationLevel
}

// Interests returns focus areas and target companies combined, lower-cased and deduplicated.
func (p *UserProfile) Interests() []string {
	if p == nil {
		return nil
	}
	combined := make([]string, 0, len(p.FocusAreas)+len(p.TargetCompanies))
	combined = append(combined, p.FocusAreas...)
	combined = append(combined, p.TargetCompanies...)
	return normalizeValues(combined)
}

// TimeWindow is a request-time interval relative to now.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Last24h returns the window covering the 24 hours before now.
func Last24h(now time.Time) TimeWindow {
	return TimeWindow{Start: now.Add(-24 * time.Hour), End: now}
}

// Last7d returns the window covering the 7 days before now.
func Last7d(now time.Time) TimeWindow {
	return TimeWindow{Start: now.Add(-7 * 24 * time.Hour), End: now}
}
