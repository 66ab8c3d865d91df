package timeofday

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	Layout = "15:04:05"
	Day    = 24 * time.Hour
)

// TimeOfDay is a wall-clock time without a date, stored as the offset from midnight.
// Valid values are in [0, 24h).
type TimeOfDay time.Duration

// New builds a TimeOfDay from hour, minute and second components.
func New(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("invalid time of day %02d:%02d:%02d", hour, minute, second)
	}
	d := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second
	return TimeOfDay(d), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse parses "HH:MM:SS" (or "HH:MM").
func Parse(s string) (TimeOfDay, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q: expected HH:MM:SS", s)
		}
	}
	return New(t.Hour(), t.Minute(), t.Second())
}

// FromTime extracts the wall-clock component of t in t's location.
func FromTime(t time.Time) TimeOfDay {
	tod, _ := New(t.Hour(), t.Minute(), t.Second())
	return tod
}

// On places the time of day on the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(t))
}

// Sub returns t-u as a signed duration on the same calendar day.
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration {
	return time.Duration(t) - time.Duration(u)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PG converts to the pgx TIME representation.
func (t TimeOfDay) PG() pgtype.Time {
	return pgtype.Time{Microseconds: time.Duration(t).Microseconds(), Valid: true}
}

// PGPtr converts an optional value; nil maps to SQL NULL.
func PGPtr(t *TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return t.PG()
}

// FromPG converts a pgx TIME value. It returns nil for SQL NULL.
func FromPG(v pgtype.Time) *TimeOfDay {
	if !v.Valid {
		return nil
	}
	t := TimeOfDay(time.Duration(v.Microseconds) * time.Microsecond)
	return &t
}
