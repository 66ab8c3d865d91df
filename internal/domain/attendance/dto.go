package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

// ========================================
// EVENT DTOs
// ========================================

// RecordEventRequest identifies the employee either by badge or by type and id.
type RecordEventRequest struct {
	BadgeUID     string  `json:"badge_uid,omitempty"`
	EmployeeType string  `json:"employee_type,omitempty"`
	EmployeeID   string  `json:"employee_id,omitempty"`
	Timestamp    *string `json:"timestamp,omitempty"`
	Source       Source  `json:"-"`
	// ReceivedAt is when the server took the request. A badge event without
	// a timestamp happens at this instant.
	ReceivedAt time.Time `json:"-"`
}

// Validate checks the identity. The timestamp is checked by the engine so a
// bad value surfaces as ErrInvalidTimestamp.
func (r *RecordEventRequest) Validate() error {
	var errs validator.ValidationErrors

	hasBadge := !validator.IsEmpty(r.BadgeUID)
	hasRef := !validator.IsEmpty(r.EmployeeType) || !validator.IsEmpty(r.EmployeeID)

	switch {
	case hasBadge && hasRef:
		errs = append(errs, validator.ValidationError{
			Field:   "badge_uid",
			Message: "provide either badge_uid or employee_type and employee_id, not both",
		})
	case hasBadge:
		if !validator.IsValidBadgeUID(r.BadgeUID) {
			errs = append(errs, validator.ValidationError{
				Field:   "badge_uid",
				Message: "badge_uid must be a hexadecimal badge UID",
			})
		}
	case hasRef:
		if !employee.Type(r.EmployeeType).Valid() {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_type",
				Message: "employee_type must be one of: onsite, remote",
			})
		}
		if validator.IsEmpty(r.EmployeeID) {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_id",
				Message: "employee_id is required",
			})
		}
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "badge_uid",
			Message: "badge_uid or employee_type and employee_id is required",
		})
	}

	if r.Source != SourceBadge && r.Source != SourceManual {
		errs = append(errs, validator.ValidationError{
			Field:   "source",
			Message: "source must be one of: badge, manual",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	if hasBadge {
		r.BadgeUID = validator.NormalizeBadgeUID(r.BadgeUID)
	}
	return nil
}

// RFIDScanRequest is the body a badge reader posts for each scan.
type RFIDScanRequest struct {
	UID       string  `json:"uid"`
	Timestamp *string `json:"timestamp,omitempty"`
}

func (r RFIDScanRequest) ToEventRequest(receivedAt time.Time) RecordEventRequest {
	return RecordEventRequest{
		BadgeUID:   r.UID,
		Timestamp:  r.Timestamp,
		Source:     SourceBadge,
		ReceivedAt: receivedAt,
	}
}

// EventResult is what the engine decided and wrote for one event.
type EventResult struct {
	Type      EventType
	Session   Session
	Employee  employee.Employee
	Deviation *Deviation
	Status    *Status
	// StaleOpen counts open sessions older than the maximum session age.
	// They are left for the stale session job.
	StaleOpen int
}

// PendingExit reports whether the session still waits for a salida.
func (r EventResult) PendingExit() bool {
	return r.Session.Open()
}

type EventResponse struct {
	Type         string          `json:"type"`
	Session      SessionResponse `json:"session"`
	EmployeeName string          `json:"employee_name"`
	Deviation    *string         `json:"deviation,omitempty"`
	Status       *string         `json:"status,omitempty"`
	PendingExit  bool            `json:"pending_exit"`
	PendingExits int             `json:"pending_exits,omitempty"`
}

func NewEventResponse(r EventResult) EventResponse {
	resp := EventResponse{
		Type:         string(r.Type),
		Session:      NewSessionResponse(r.Session),
		EmployeeName: r.Employee.FullName,
		PendingExit:  r.PendingExit(),
		PendingExits: r.StaleOpen,
	}
	if r.Deviation != nil {
		label := r.Deviation.String()
		resp.Deviation = &label
	}
	if r.Status != nil {
		status := string(*r.Status)
		resp.Status = &status
	}
	return resp
}

// ========================================
// SESSION DTOs
// ========================================

type SessionResponse struct {
	ID               string  `json:"id"`
	EmployeeType     string  `json:"employee_type"`
	EmployeeID       string  `json:"employee_id"`
	EmployeeName     *string `json:"employee_name,omitempty"`
	Date             string  `json:"date"`
	EntryTime        string  `json:"entry_time"`
	ExitTime         *string `json:"exit_time"`
	Duration         *string `json:"duration"`
	DurationMinutes  *int64  `json:"duration_minutes"`
	ExpectedStart    *string `json:"expected_start,omitempty"`
	Deviation        *string `json:"deviation,omitempty"`
	DeviationMinutes *int    `json:"deviation_minutes,omitempty"`
	Status           *string `json:"status,omitempty"`
	EntrySource      string  `json:"entry_source"`
	ExitSource       *string `json:"exit_source,omitempty"`
	AutoClosed       bool    `json:"auto_closed"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func NewSessionResponse(s Session) SessionResponse {
	resp := SessionResponse{
		ID:               s.ID,
		EmployeeType:     string(s.EmployeeType),
		EmployeeID:       s.EmployeeID,
		EmployeeName:     s.EmployeeName,
		Date:             s.Date.Format("2006-01-02"),
		EntryTime:        s.EntryTime.String(),
		DeviationMinutes: s.DeviationMinutes,
		EntrySource:      string(s.EntrySource),
		AutoClosed:       s.AutoClosed,
		CreatedAt:        s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        s.UpdatedAt.Format(time.RFC3339),
	}
	if s.ExitTime != nil {
		exit := s.ExitTime.String()
		resp.ExitTime = &exit
	}
	if d := s.Duration(); d != nil {
		label := FormatDuration(*d)
		minutes := int64(*d / time.Minute)
		resp.Duration = &label
		resp.DurationMinutes = &minutes
	}
	if s.ExpectedStart != nil {
		expected := s.ExpectedStart.String()
		resp.ExpectedStart = &expected
	}
	if dev := s.Deviation(); dev != nil {
		label := dev.String()
		resp.Deviation = &label
	}
	if s.Status != nil {
		status := string(*s.Status)
		resp.Status = &status
	}
	if s.ExitSource != nil {
		src := string(*s.ExitSource)
		resp.ExitSource = &src
	}
	return resp
}

// FormatDuration renders "7h 45m 0s", "12m 5s" or "40s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	s := int64(d % time.Minute / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

type SessionFilter struct {
	// Search & Filter
	EmployeeType *string `json:"employee_type,omitempty"`
	EmployeeID   *string `json:"employee_id,omitempty"`
	Date         *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status       *string `json:"status,omitempty"`
	OpenOnly     bool    `json:"open_only,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, entry_time, exit_time, employee_name, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *SessionFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.EmployeeType != nil && !employee.Type(*f.EmployeeType).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_type",
			Message: "employee_type must be one of: onsite, remote",
		})
	}

	if f.Status != nil {
		validStatuses := []string{string(StatusPresent), string(StatusLate)}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: present, late",
			})
		}
	}

	// Date validation
	dates := []struct {
		field string
		value *string
	}{
		{"date", f.Date},
		{"start_date", f.StartDate},
		{"end_date", f.EndDate},
	}
	for _, d := range dates {
		if d.value == nil || *d.value == "" {
			continue
		}
		if _, valid := validator.IsValidDate(*d.value); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   d.field,
				Message: d.field + " must be in YYYY-MM-DD format",
			})
		}
	}
	if f.StartDate != nil && f.EndDate != nil {
		start, okStart := validator.IsValidDate(*f.StartDate)
		end, okEnd := validator.IsValidDate(*f.EndDate)
		if okStart && okEnd && end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		}
	}

	// Sort validation
	if f.SortBy != "" {
		validSortFields := []string{"date", "entry_time", "exit_time", "employee_name", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, entry_time, exit_time, employee_name, status",
			})
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // newest first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListSessionResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Sessions   []SessionResponse `json:"sessions"`
}

// StaleCloseReport summarizes one run of the stale session job.
type StaleCloseReport struct {
	Scanned int
	Closed  int
	// Pending sessions could not be closed, usually for lack of a schedule.
	Pending int
}
