package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/accesslog"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/validator"
)

type AttendanceHandler interface {
	RFIDScan(w http.ResponseWriter, r *http.Request)
	RecordEvent(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

// ScanTopic is the hub topic carrying live scan outcomes to managers.
const ScanTopic = "attendance.scans"

const streamKeepalive = 30 * time.Second

type attendanceHandlerImpl struct {
	engine            attendance.SessionEngine
	attendanceService attendance.AttendanceService
	accessLogService  accesslog.AccessLogService
	hub               *sse.Hub
}

func NewAttendanceHandler(
	engine attendance.SessionEngine,
	attendanceService attendance.AttendanceService,
	accessLogService accesslog.AccessLogService,
	hub *sse.Hub,
) AttendanceHandler {
	return &attendanceHandlerImpl{
		engine:            engine,
		attendanceService: attendanceService,
		accessLogService:  accessLogService,
		hub:               hub,
	}
}

func (h *attendanceHandlerImpl) writeEventResult(w http.ResponseWriter, result attendance.EventResult) {
	body := attendance.NewEventResponse(result)
	h.publish(string(result.Type), body)

	if result.Type == attendance.EventEntrada {
		response.Created(w, "Entrada recorded", body)
		return
	}
	response.SuccessWithMessage(w, "Salida recorded", body)
}

func (h *attendanceHandlerImpl) publish(event string, data interface{}) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(ScanTopic, sse.Event{Event: event, Data: data})
}

// RFIDScan implements AttendanceHandler. Every scan is written to the access
// log whatever the attendance outcome.
func (h *attendanceHandlerImpl) RFIDScan(w http.ResponseWriter, r *http.Request) {
	receivedAt := time.Now()

	var scan attendance.RFIDScanRequest
	if err := json.NewDecoder(r.Body).Decode(&scan); err != nil {
		slog.Error("RFIDScan decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req := scan.ToEventRequest(receivedAt)
	result, err := h.engine.RecordEvent(r.Context(), req)

	if !validator.IsEmpty(scan.UID) {
		h.logScan(r, scan, receivedAt, result, err)
	}

	if err != nil {
		if errors.Is(err, attendance.ErrUnknownEmployee) {
			uid := validator.NormalizeBadgeUID(scan.UID)
			slog.Warn("scan from unregistered badge", "badge_uid", uid)
			h.publish(accesslog.OutcomeUnknown, map[string]string{
				"badge_uid":   uid,
				"received_at": receivedAt.Format(time.RFC3339),
			})
		} else {
			slog.Error("RFIDScan record error", "error", err)
		}
		response.HandleError(w, err)
		return
	}

	h.writeEventResult(w, result)
}

func (h *attendanceHandlerImpl) logScan(r *http.Request, scan attendance.RFIDScanRequest, receivedAt time.Time, result attendance.EventResult, err error) {
	entry := accesslog.Entry{
		BadgeUID:   validator.NormalizeBadgeUID(scan.UID),
		ReceivedAt: receivedAt,
	}

	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		empType := string(result.Employee.Type)
		empID := result.Employee.ID
		sessionID := result.Session.ID
		eventType := string(result.Type)
		entry.Registered = true
		entry.EmployeeType = &empType
		entry.EmployeeID = &empID
		entry.SessionID = &sessionID
		entry.EventType = &eventType
		entry.Outcome = accesslog.OutcomeRecorded
	case errors.Is(err, attendance.ErrUnknownEmployee):
		entry.Outcome = accesslog.OutcomeUnknown
	case errors.Is(err, attendance.ErrInvalidTimestamp), errors.As(err, &validationErrs):
		entry.Outcome = accesslog.OutcomeRejected
	default:
		entry.Outcome = accesslog.OutcomeFailed
	}

	if logErr := h.accessLogService.Record(r.Context(), entry); logErr != nil {
		slog.Warn("failed to write access log", "badge_uid", entry.BadgeUID, "error", logErr)
	}
}

// RecordEvent implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RecordEvent decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Source = attendance.SourceManual

	result, err := h.engine.RecordEvent(r.Context(), req)
	if err != nil {
		slog.Error("RecordEvent service error", "error", err)
		response.HandleError(w, err)
		return
	}

	h.writeEventResult(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	// Parse query parameters
	filter := attendance.SessionFilter{}

	if employeeType := query.Get("employee_type"); employeeType != "" {
		filter.EmployeeType = &employeeType
	}

	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}

	// Date filter
	if date := query.Get("date"); date != "" {
		filter.Date = &date
	}

	// Date range filters
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}

	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	// Status filter
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}

	if openOnly, err := strconv.ParseBool(query.Get("open_only")); err == nil {
		filter.OpenOnly = openOnly
	}

	// Pagination
	page := 1
	if p := query.Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	filter.Page = page

	limit := 20
	if l := query.Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	filter.Limit = limit

	// Sorting
	filter.SortBy = query.Get("sort_by")
	filter.SortOrder = query.Get("sort_order")

	results, err := h.attendanceService.ListSessions(ctx, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.GetSession(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.attendanceService.DeleteSession(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("attendance session deleted", "session_id", id)
	response.SuccessWithMessage(w, "Attendance session deleted successfully", nil)
}

// Stream implements AttendanceHandler. It pushes every scan outcome to the
// connected manager as server-sent events until the client goes away.
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok || h.hub == nil {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(ScanTopic)
	defer cleanup()
	slog.Info("scan feed subscriber connected", "subscribers", h.hub.SubscriberCount(ScanTopic))

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Stream encode error", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
