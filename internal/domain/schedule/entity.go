package schedule

import (
	"time"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
)

// Schedule holds up to two daily shifts. The second shift is either fully
// present (Start2 and End2) or absent.
type Schedule struct {
	ID        string
	Name      string
	Start1    timeofday.TimeOfDay
	End1      timeofday.TimeOfDay
	Start2    *timeofday.TimeOfDay
	End2      *timeofday.TimeOfDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Shift is one start/end window of a schedule.
type Shift struct {
	Start timeofday.TimeOfDay
	End   timeofday.TimeOfDay
}

// Shifts returns the configured shifts in declaration order.
func (s Schedule) Shifts() []Shift {
	shifts := []Shift{{Start: s.Start1, End: s.End1}}
	if s.Start2 != nil && s.End2 != nil {
		shifts = append(shifts, Shift{Start: *s.Start2, End: *s.End2})
	}
	return shifts
}

// Starts returns the expected shift start times.
func (s Schedule) Starts() []timeofday.TimeOfDay {
	shifts := s.Shifts()
	starts := make([]timeofday.TimeOfDay, 0, len(shifts))
	for _, sh := range shifts {
		starts = append(starts, sh.Start)
	}
	return starts
}
