package employee

import (
	"time"
)

type Type string

const (
	TypeOnsite Type = "onsite"
	TypeRemote Type = "remote"
)

func (t Type) Valid() bool {
	return t == TypeOnsite || t == TypeRemote
}

// Ref identifies an employee. IDs are only unique within a type.
type Ref struct {
	Type Type
	ID   string
}

// Key is the per-employee serialization key.
func (r Ref) Key() string {
	return string(r.Type) + ":" + r.ID
}

type Employee struct {
	ID                   string
	Type                 Type
	FullName             string
	IdentificationNumber string
	Email                *string
	Phone                *string
	Role                 *string
	BadgeUID             *string
	BadgeAssignedBy      *string
	BadgeAssignedAt      *time.Time
	ScheduleID           *string
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (e Employee) Ref() Ref {
	return Ref{Type: e.Type, ID: e.ID}
}
