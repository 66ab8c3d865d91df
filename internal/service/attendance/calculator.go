package attendance

import (
	"time"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
)

// NearestExpectedStart picks the shift start closest to actual. On a tie the
// start that has already passed wins. Returns false when no start is configured.
func NearestExpectedStart(starts []timeofday.TimeOfDay, actual timeofday.TimeOfDay) (timeofday.TimeOfDay, bool) {
	if len(starts) == 0 {
		return 0, false
	}

	best := starts[0]
	bestDiff := actual.Sub(best)
	for _, candidate := range starts[1:] {
		diff := actual.Sub(candidate)
		if closer(diff, bestDiff) {
			best, bestDiff = candidate, diff
		}
	}
	return best, true
}

func closer(diff, bestDiff time.Duration) bool {
	a, b := abs(diff), abs(bestDiff)
	if a != b {
		return a < b
	}
	return diff >= 0 && bestDiff < 0
}

// ClassifyDeviation compares an entrada with the expected start on the same
// calendar day. Partial minutes are truncated.
func ClassifyDeviation(expected, actual timeofday.TimeOfDay) attendance.Deviation {
	minutes := int(actual.Sub(expected) / time.Minute)
	return attendance.DeviationFromMinutes(minutes)
}

// ComputeDuration returns exit-entry. An exit earlier in the day than the
// entry belongs to the next calendar day, so 24h is added.
func ComputeDuration(entry, exit timeofday.TimeOfDay) time.Duration {
	d := exit.Sub(entry)
	if d < 0 {
		d += timeofday.Day
	}
	return d
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
