package domain

import (
	"math"
	"time"
)

// Dispatch weight constants. Changing any of them changes fleet ranking.
const (
	AliveWindow = 5 * time.Minute

	baseWeight               = 100.0
	successRateDivisor       = 50.0
	baselineCompletionTimeMs = 30000.0
	loadPenaltyPerJob        = 0.1
	availabilityCeiling      = 1.2
	availabilityDecayMinutes = 10.0

	minSuccessMultiplier      = 0.5
	maxSuccessMultiplier      = 2.0
	minTimeMultiplier         = 0.5
	maxTimeMultiplier         = 2.0
	minLoadMultiplier         = 0.5
	maxLoadMultiplier         = 1.5
	minAvailabilityMultiplier = 0.8
	maxAvailabilityMultiplier = 1.2
)

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// IsAlive reports whether the last heartbeat falls inside the alive window ending at now.
func (s Scanner) IsAlive(now time.Time) bool {
	if s.LastHeartbeatAt == nil {
		return false
	}
	return now.Sub(*s.LastHeartbeatAt) < AliveWindow
}

// Weight is the dispatch preference of the scanner evaluated at now.
// Blacklisted or silent scanners weigh 0.
func (s Scanner) Weight(now time.Time) int {
	if s.IsBlacklisted || !s.IsAlive(now) {
		return 0
	}

	success := clamp(float64(s.SuccessRate)/successRateDivisor, minSuccessMultiplier, maxSuccessMultiplier)

	timeFactor := 1.0
	if s.AverageCompletionTimeMs > 0 {
		timeFactor = clamp(baselineCompletionTimeMs/float64(s.AverageCompletionTimeMs), minTimeMultiplier, maxTimeMultiplier)
	}

	load := clamp(1.0-loadPenaltyPerJob*float64(s.CurrentActiveJobs), minLoadMultiplier, maxLoadMultiplier)

	ageMinutes := now.Sub(*s.LastHeartbeatAt).Minutes()
	availability := clamp(availabilityCeiling-ageMinutes/availabilityDecayMinutes, minAvailabilityMultiplier, maxAvailabilityMultiplier)

	weight := baseWeight * success * timeFactor * load * availability
	return int(math.Round(math.Max(0, weight)))
}
