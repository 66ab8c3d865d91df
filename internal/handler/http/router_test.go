package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/accesslog"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type stubEngine struct {
	mu   sync.Mutex
	last attendance.RecordEventRequest
	fn   func(req attendance.RecordEventRequest) (attendance.EventResult, error)
}

func (s *stubEngine) RecordEvent(ctx context.Context, req attendance.RecordEventRequest) (attendance.EventResult, error) {
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	if err := req.Validate(); err != nil {
		return attendance.EventResult{}, err
	}
	return s.fn(req)
}

type stubAttendanceService struct{}

func (stubAttendanceService) ListSessions(ctx context.Context, filter attendance.SessionFilter) (attendance.ListSessionResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListSessionResponse{}, err
	}
	return attendance.ListSessionResponse{Page: filter.Page, Limit: filter.Limit, Showing: "0 of 0"}, nil
}

func (stubAttendanceService) GetSession(ctx context.Context, id string) (attendance.SessionResponse, error) {
	return attendance.SessionResponse{}, attendance.ErrSessionNotFound
}

func (stubAttendanceService) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type recordingAccessLog struct {
	mu      sync.Mutex
	entries []accesslog.Entry
}

func (r *recordingAccessLog) Record(ctx context.Context, entry accesslog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAccessLog) List(ctx context.Context, filter accesslog.AccessLogFilter) ([]accesslog.AccessLogResponse, error) {
	return []accesslog.AccessLogResponse{}, nil
}

type stubEmployeeService struct {
	employee.EmployeeService
	assigned employee.AssignBadgeRequest
}

func (s *stubEmployeeService) AssignBadge(ctx context.Context, req employee.AssignBadgeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	s.assigned = req
	return employee.EmployeeResponse{ID: req.Ref.ID, Type: string(req.Ref.Type), BadgeUID: &req.BadgeUID}, nil
}

type stubScheduleService struct {
	schedule.ScheduleService
}

func (stubScheduleService) List(ctx context.Context) ([]schedule.ScheduleResponse, error) {
	return []schedule.ScheduleResponse{}, nil
}

type stubAuthService struct {
	auth.AuthService
	registered []auth.RegisterRequest
}

// Register behaves as if a manager already exists.
func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (auth.ManagerResponse, error) {
	if req.RegisteredBy == "" {
		return auth.ManagerResponse{}, auth.ErrRegistrationClosed
	}
	s.registered = append(s.registered, req)
	return auth.ManagerResponse{ID: "mgr-0002", Identification: req.Identification, FullName: req.FullName}, nil
}

type testServer struct {
	router    http.Handler
	engine    *stubEngine
	accessLog *recordingAccessLog
	employees *stubEmployeeService
	auth      *stubAuthService
	hub       *sse.Hub
	token     string
}

var ana = employee.Employee{
	ID:       "1001",
	Type:     employee.TypeOnsite,
	FullName: "Ana Torres",
	Active:   true,
}

func entradaResult() attendance.EventResult {
	dev := attendance.Deviation{Kind: attendance.DeviationLate, Minutes: 7}
	status := attendance.StatusLate
	minutes := dev.SignedMinutes()
	expected := timeofday.MustParse("09:00:00")
	return attendance.EventResult{
		Type: attendance.EventEntrada,
		Session: attendance.Session{
			ID:               "0192a3b4-5c6d-7e8f-9a0b-1c2d3e4f5a6b",
			EmployeeType:     ana.Type,
			EmployeeID:       ana.ID,
			Date:             time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			EntryTime:        timeofday.MustParse("09:07:00"),
			ExpectedStart:    &expected,
			DeviationMinutes: &minutes,
			Status:           &status,
			EntrySource:      attendance.SourceBadge,
		},
		Employee:  ana,
		Deviation: &dev,
		Status:    &status,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	jwtService, err := jwt.NewJWTService(handlerTestSecret, "1h")
	require.NoError(t, err)
	token, _, err := jwtService.GenerateAccessToken("mgr-0001", "1032456789")
	require.NoError(t, err)

	engine := &stubEngine{fn: func(req attendance.RecordEventRequest) (attendance.EventResult, error) {
		return entradaResult(), nil
	}}
	accessLog := &recordingAccessLog{}
	employees := &stubEmployeeService{}
	authService := &stubAuthService{}
	hub := sse.NewHub()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger, RouterOptions{AllowedOrigins: []string{"http://localhost:3000"}}, jwtService, Handlers{
		Auth:       NewAuthHandler(authService),
		Attendance: NewAttendanceHandler(engine, stubAttendanceService{}, accessLog, hub),
		AccessLog:  NewAccessLogHandler(accessLog),
		Employee:   NewEmployeeHandler(employees),
		Schedule:   NewScheduleHandler(stubScheduleService{}),
	})

	return &testServer{router: router, engine: engine, accessLog: accessLog, employees: employees, auth: authService, hub: hub, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any, authorized bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func TestRFIDScan_Entrada(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/attendance/rfid", map[string]any{"uid": "04:a3:2b:1c"}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "entrada", data["type"])
	assert.Equal(t, "7 min late", data["deviation"])
	assert.Equal(t, "late", data["status"])
	assert.Equal(t, true, data["pending_exit"])
	assert.Equal(t, "Ana Torres", data["employee_name"])

	assert.Equal(t, attendance.SourceBadge, s.engine.last.Source)
	assert.Nil(t, s.engine.last.Timestamp)

	require.Len(t, s.accessLog.entries, 1)
	entry := s.accessLog.entries[0]
	assert.Equal(t, "04A32B1C", entry.BadgeUID)
	assert.True(t, entry.Registered)
	assert.Equal(t, accesslog.OutcomeRecorded, entry.Outcome)
	require.NotNil(t, entry.EventType)
	assert.Equal(t, "entrada", *entry.EventType)
	assert.False(t, entry.ReceivedAt.IsZero())
	assert.True(t, entry.ReceivedAt.Equal(s.engine.last.ReceivedAt))
}

func TestRFIDScan_Salida(t *testing.T) {
	s := newTestServer(t)
	s.engine.fn = func(req attendance.RecordEventRequest) (attendance.EventResult, error) {
		r := entradaResult()
		exit := timeofday.MustParse("17:30:00")
		secs := int64(8*3600 + 23*60)
		src := attendance.SourceBadge
		r.Type = attendance.EventSalida
		r.Session.ExitTime = &exit
		r.Session.DurationSeconds = &secs
		r.Session.ExitSource = &src
		r.Deviation, r.Status = nil, nil
		return r, nil
	}

	rec, body := s.do(t, http.MethodPost, "/api/v1/attendance/rfid", map[string]any{"uid": "04A32B1C"}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := body["data"].(map[string]any)
	assert.Equal(t, "salida", data["type"])
	assert.Equal(t, false, data["pending_exit"])
	session := data["session"].(map[string]any)
	assert.Equal(t, "8h 23m 0s", session["duration"])
	assert.Equal(t, float64(503), session["duration_minutes"])
	assert.Equal(t, "17:30:00", session["exit_time"])
}

func TestRFIDScan_Errors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		outcome string
	}{
		{"unknown badge", fmt.Errorf("%w: badge FFFF0000", attendance.ErrUnknownEmployee), http.StatusNotFound, accesslog.OutcomeUnknown},
		{"invalid timestamp", fmt.Errorf("%w: bad", attendance.ErrInvalidTimestamp), http.StatusBadRequest, accesslog.OutcomeRejected},
		{"store down", fmt.Errorf("%w: find open sessions: timeout", attendance.ErrTransientStore), http.StatusServiceUnavailable, accesslog.OutcomeFailed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newTestServer(t)
			s.engine.fn = func(req attendance.RecordEventRequest) (attendance.EventResult, error) {
				return attendance.EventResult{}, c.err
			}

			rec, body := s.do(t, http.MethodPost, "/api/v1/attendance/rfid", map[string]any{"uid": "FFFF0000"}, false)
			require.Equal(t, c.status, rec.Code, rec.Body.String())
			assert.Equal(t, false, body["success"])

			if c.status == http.StatusServiceUnavailable {
				assert.Equal(t, "2", rec.Header().Get("Retry-After"))
			}

			require.Len(t, s.accessLog.entries, 1)
			assert.False(t, s.accessLog.entries[0].Registered)
			assert.Equal(t, c.outcome, s.accessLog.entries[0].Outcome)
		})
	}
}

func TestRFIDScan_Validation(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/attendance/rfid", map[string]any{"uid": ""}, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
	assert.Empty(t, s.accessLog.entries)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/rfid", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestManualEvent(t *testing.T) {
	s := newTestServer(t)

	payload := map[string]any{"employee_type": "onsite", "employee_id": "1001", "timestamp": "2025-03-14 09:07:00"}

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/events", payload, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/events", payload, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, attendance.SourceManual, s.engine.last.Source)
	require.NotNil(t, s.engine.last.Timestamp)
	assert.Equal(t, "2025-03-14 09:07:00", *s.engine.last.Timestamp)
	assert.Empty(t, s.accessLog.entries)
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/attendance/sessions", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/attendance/sessions?page=2&limit=10", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), body["data"].(map[string]any)["page"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/sessions?status=absent", nil, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/sessions/0192a3b4-5c6d-7e8f-9a0b-1c2d3e4f5a6b", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/schedules", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/access-logs", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterManager_RequiresManagerToken(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{"identification": "79876543", "full_name": "Jorge Paz", "password": "another-pass"}

	rec, resp := s.do(t, http.MethodPost, "/api/v1/auth/managers/register", body, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", resp["error"].(map[string]any)["code"])
	assert.Empty(t, s.auth.registered)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/managers/register", body, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, s.auth.registered, 1)
	assert.Equal(t, "mgr-0001", s.auth.registered[0].RegisteredBy)
}

func TestAssignBadge_RecordsManager(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/employees/onsite/1001/badge", map[string]any{"badge_uid": "04 a3 2b 1c"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, employee.Ref{Type: employee.TypeOnsite, ID: "1001"}, s.employees.assigned.Ref)
	assert.Equal(t, "mgr-0001", s.employees.assigned.AssignedBy)
	assert.Equal(t, "04A32B1C", s.employees.assigned.BadgeUID)
}

func TestRFIDScan_PublishesToFeed(t *testing.T) {
	s := newTestServer(t)

	events, cleanup := s.hub.Subscribe(ScanTopic)
	defer cleanup()

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/rfid", map[string]any{"uid": "04A32B1C"}, false)
	require.Equal(t, http.StatusCreated, rec.Code)

	s.engine.fn = func(req attendance.RecordEventRequest) (attendance.EventResult, error) {
		return attendance.EventResult{}, attendance.ErrUnknownEmployee
	}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/rfid", map[string]any{"uid": "DEADBEEF"}, false)
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.Len(t, events, 2)
	first := <-events
	assert.Equal(t, "entrada", first.Event)
	second := <-events
	assert.Equal(t, accesslog.OutcomeUnknown, second.Event)
	assert.Equal(t, "DEADBEEF", second.Data.(map[string]string)["badge_uid"])
}

func TestStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/attendance/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/attendance/stream?jwt="+s.token, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}

	assert.Equal(t, "connected", readEvent())
	require.Eventually(t, func() bool { return s.hub.SubscriberCount(ScanTopic) == 1 }, time.Second, 5*time.Millisecond)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/rfid", map[string]any{"uid": "04A32B1C"}, false)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "entrada", readEvent())
}
