package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
)

type EventType string

const (
	EventEntrada EventType = "entrada"
	EventSalida  EventType = "salida"
)

type Source string

const (
	SourceBadge  Source = "badge"
	SourceManual Source = "manual"
	SourceAuto   Source = "auto"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
)

type DeviationKind string

const (
	DeviationOnTime DeviationKind = "on_time"
	DeviationEarly  DeviationKind = "early"
	DeviationLate   DeviationKind = "late"
)

// Deviation is the offset of an entrada from the expected shift start.
// Minutes is always non-negative; Kind carries the sign.
type Deviation struct {
	Kind    DeviationKind
	Minutes int
}

// DeviationFromMinutes rebuilds a Deviation from its signed minute form.
func DeviationFromMinutes(signed int) Deviation {
	switch {
	case signed < 0:
		return Deviation{Kind: DeviationEarly, Minutes: -signed}
	case signed > 0:
		return Deviation{Kind: DeviationLate, Minutes: signed}
	default:
		return Deviation{Kind: DeviationOnTime}
	}
}

// SignedMinutes is negative when early and positive when late.
func (d Deviation) SignedMinutes() int {
	switch d.Kind {
	case DeviationEarly:
		return -d.Minutes
	case DeviationLate:
		return d.Minutes
	default:
		return 0
	}
}

// Status is late only when the delay exceeds the grace period.
func (d Deviation) Status(graceMinutes int) Status {
	if d.Kind == DeviationLate && d.Minutes > graceMinutes {
		return StatusLate
	}
	return StatusPresent
}

func (d Deviation) String() string {
	switch d.Kind {
	case DeviationLate:
		return fmt.Sprintf("%d min late", d.Minutes)
	case DeviationEarly:
		return fmt.Sprintf("%d min early", d.Minutes)
	default:
		return "on time"
	}
}

// Session is one entrada with its optional matching salida. Date is the
// organizational calendar date of the entrada and never changes.
type Session struct {
	ID               string
	EmployeeType     employee.Type
	EmployeeID       string
	Date             time.Time
	EntryTime        timeofday.TimeOfDay
	ExitTime         *timeofday.TimeOfDay
	DurationSeconds  *int64
	ExpectedStart    *timeofday.TimeOfDay
	DeviationMinutes *int
	Status           *Status
	EntrySource      Source
	ExitSource       *Source
	AutoClosed       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined
	EmployeeName *string
}

func (s Session) Open() bool {
	return s.ExitTime == nil
}

func (s Session) EmployeeRef() employee.Ref {
	return employee.Ref{Type: s.EmployeeType, ID: s.EmployeeID}
}

// EntryInstant is the absolute time of the entrada in loc.
func (s Session) EntryInstant(loc *time.Location) time.Time {
	return s.EntryTime.On(s.Date, loc)
}

func (s Session) Deviation() *Deviation {
	if s.DeviationMinutes == nil {
		return nil
	}
	d := DeviationFromMinutes(*s.DeviationMinutes)
	return &d
}

func (s Session) Duration() *time.Duration {
	if s.DurationSeconds == nil {
		return nil
	}
	d := time.Duration(*s.DurationSeconds) * time.Second
	return &d
}

// Closure is the salida applied to an open session.
type Closure struct {
	ExitTime   timeofday.TimeOfDay
	Duration   time.Duration
	Source     Source
	AutoClosed bool
}
