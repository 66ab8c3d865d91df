package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

// RetryAfterSeconds is sent with 503 responses for transient store failures.
const RetryAfterSeconds = 2

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrUnknownEmployee):
		NotFound(w, "Badge or employee not registered")
	case errors.Is(err, attendance.ErrInvalidTimestamp):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrTransientStore):
		ServiceUnavailable(w, "Attendance store temporarily unavailable, retry the request", RetryAfterSeconds)
	case errors.Is(err, attendance.ErrSessionNotFound):
		NotFound(w, "Attendance session not found")

	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid identification or password")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrInsufficientPermission):
		Forbidden(w, "Insufficient permission")
	case errors.Is(err, auth.ErrRegistrationClosed):
		Forbidden(w, "Only a signed-in manager can register another manager")
	case errors.Is(err, auth.ErrManagerNotFound):
		NotFound(w, "Manager not found")
	case errors.Is(err, auth.ErrIdentificationExists):
		Conflict(w, "Identification already registered")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeExists):
		Conflict(w, "Employee with this type and id already exists")
	case errors.Is(err, employee.ErrIdentificationExists):
		Conflict(w, "Identification number already registered")
	case errors.Is(err, employee.ErrBadgeAlreadyAssigned):
		Conflict(w, "Badge is already assigned to another employee")
	case errors.Is(err, employee.ErrBadgeNotAssigned):
		Conflict(w, "Employee has no badge assigned")
	case errors.Is(err, employee.ErrEmployeeAlreadyInactive):
		Conflict(w, "Employee is already inactive")
	case errors.Is(err, employee.ErrScheduleNotFound):
		BadRequest(w, "Schedule not found", map[string]string{"schedule_id": "schedule does not exist"})
	case errors.Is(err, employee.ErrInvalidEmployeeType):
		NotFound(w, "Employee not found")

	// Schedule domain errors
	case errors.Is(err, schedule.ErrScheduleNotFound):
		NotFound(w, "Schedule not found")
	case errors.Is(err, schedule.ErrScheduleNameExists):
		Conflict(w, "Schedule name already exists")
	case errors.Is(err, schedule.ErrScheduleInUse):
		Conflict(w, "Schedule is assigned to one or more employees")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
