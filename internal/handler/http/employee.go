package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/handler/http/response"
)

type EmployeeHandler interface {
	CreateEmployee(w http.ResponseWriter, r *http.Request)
	GetEmployee(w http.ResponseWriter, r *http.Request)
	ListEmployees(w http.ResponseWriter, r *http.Request)
	UpdateEmployee(w http.ResponseWriter, r *http.Request)
	DeactivateEmployee(w http.ResponseWriter, r *http.Request)
	AssignBadge(w http.ResponseWriter, r *http.Request)
	UnassignBadge(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	employeeService employee.EmployeeService
}

func NewEmployeeHandler(employeeService employee.EmployeeService) EmployeeHandler {
	return &employeeHandlerImpl{
		employeeService: employeeService,
	}
}

// employeeRef reads the {type}/{id} route params.
func employeeRef(r *http.Request) employee.Ref {
	return employee.Ref{
		Type: employee.Type(chi.URLParam(r, "type")),
		ID:   chi.URLParam(r, "id"),
	}
}

// CreateEmployee implements EmployeeHandler.
func (h *employeeHandlerImpl) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employee.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateEmployee decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.employeeService.CreateEmployee(r.Context(), req)
	if err != nil {
		slog.Error("CreateEmployee service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Employee created successfully", result)
}

// GetEmployee implements EmployeeHandler.
func (h *employeeHandlerImpl) GetEmployee(w http.ResponseWriter, r *http.Request) {
	result, err := h.employeeService.GetEmployee(r.Context(), employeeRef(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListEmployees implements EmployeeHandler.
func (h *employeeHandlerImpl) ListEmployees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := employee.EmployeeFilter{}

	if employeeType := query.Get("type"); employeeType != "" {
		filter.Type = &employeeType
	}
	if active, err := strconv.ParseBool(query.Get("active")); err == nil {
		filter.Active = &active
	}
	if search := query.Get("search"); search != "" {
		filter.Search = &search
	}

	// Pagination
	if p := query.Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil {
			filter.Page = page
		}
	}
	if l := query.Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil {
			filter.Limit = limit
		}
	}

	result, err := h.employeeService.ListEmployees(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateEmployee implements EmployeeHandler.
func (h *employeeHandlerImpl) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employee.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateEmployee decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Ref = employeeRef(r)

	result, err := h.employeeService.UpdateEmployee(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee updated successfully", result)
}

// DeactivateEmployee implements EmployeeHandler.
func (h *employeeHandlerImpl) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employeeService.DeactivateEmployee(r.Context(), employeeRef(r)); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee deactivated successfully", nil)
}

// AssignBadge implements EmployeeHandler.
func (h *employeeHandlerImpl) AssignBadge(w http.ResponseWriter, r *http.Request) {
	var req employee.AssignBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("AssignBadge decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Ref = employeeRef(r)
	req.AssignedBy = middleware.ManagerID(r.Context())

	result, err := h.employeeService.AssignBadge(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Badge assigned successfully", result)
}

// UnassignBadge implements EmployeeHandler.
func (h *employeeHandlerImpl) UnassignBadge(w http.ResponseWriter, r *http.Request) {
	result, err := h.employeeService.UnassignBadge(r.Context(), employeeRef(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Badge unassigned successfully", result)
}
