package accesslog

import "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"

type AccessLogFilter struct {
	BadgeUID   *string `json:"badge_uid,omitempty"`
	Registered *bool   `json:"registered,omitempty"`
	Limit      int     `json:"limit"`
}

func (f *AccessLogFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 500",
		})
	}

	if f.BadgeUID != nil {
		uid := validator.NormalizeBadgeUID(*f.BadgeUID)
		f.BadgeUID = &uid
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AccessLogResponse struct {
	ID           string  `json:"id"`
	BadgeUID     string  `json:"badge_uid"`
	ReceivedAt   string  `json:"received_at"`
	Registered   bool    `json:"registered"`
	EmployeeType *string `json:"employee_type,omitempty"`
	EmployeeID   *string `json:"employee_id,omitempty"`
	SessionID    *string `json:"session_id,omitempty"`
	EventType    *string `json:"event_type,omitempty"`
	Outcome      string  `json:"outcome"`
}
