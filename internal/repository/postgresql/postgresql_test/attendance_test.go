package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/timeofday"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/repository/postgresql"
	attendanceservice "github.com/cmlabs-hris/rfid-attendance-backend-go/internal/service/attendance"
)

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func seedEmployee(t *testing.T, repo employee.EmployeeRepository, typ employee.Type, id, badge string, scheduleID *string) employee.Employee {
	t.Helper()
	emp, err := repo.Create(context.Background(), employee.Employee{
		ID:                   id,
		Type:                 typ,
		FullName:             "Employee " + id,
		IdentificationNumber: string(typ) + "-" + id,
		BadgeUID:             &badge,
		ScheduleID:           scheduleID,
		Active:               true,
	})
	require.NoError(t, err)
	return emp
}

func openSession(ref employee.Ref, date time.Time, entry string) attendance.Session {
	return attendance.Session{
		ID:           newID(),
		EmployeeType: ref.Type,
		EmployeeID:   ref.ID,
		Date:         date,
		EntryTime:    timeofday.MustParse(entry),
		EntrySource:  attendance.SourceBadge,
	}
}

func TestSessionRepository_OpenSessionInvariant(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()

	employees := postgresql.NewEmployeeRepository(setup.DB)
	sessions := postgresql.NewAttendanceRepository(setup.DB)

	emp := seedEmployee(t, employees, employee.TypeOnsite, "1001", "04A32B1C", nil)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	first, err := sessions.Create(ctx, openSession(emp.Ref(), day, "08:58:00"))
	require.NoError(t, err)
	assert.True(t, first.Open())
	assert.Equal(t, "2025-03-14", first.Date.Format("2006-01-02"))

	_, err = sessions.Create(ctx, openSession(emp.Ref(), day, "09:01:00"))
	assert.ErrorIs(t, err, attendance.ErrOpenSessionConflict)

	closed, err := sessions.Close(ctx, first.ID, attendance.Closure{
		ExitTime: timeofday.MustParse("17:00:00"),
		Duration: 8*time.Hour + 2*time.Minute,
		Source:   attendance.SourceBadge,
	})
	require.NoError(t, err)
	require.NotNil(t, closed.ExitTime)
	assert.Equal(t, "17:00:00", closed.ExitTime.String())
	require.NotNil(t, closed.DurationSeconds)
	assert.Equal(t, int64(8*3600+120), *closed.DurationSeconds)

	_, err = sessions.Close(ctx, first.ID, attendance.Closure{ExitTime: timeofday.MustParse("17:05:00"), Source: attendance.SourceBadge})
	assert.ErrorIs(t, err, attendance.ErrOpenSessionConflict)

	// Once closed, a new open session on the same date is allowed.
	_, err = sessions.Create(ctx, openSession(emp.Ref(), day, "18:30:00"))
	require.NoError(t, err)

	_, err = sessions.Create(ctx, openSession(employee.Ref{Type: employee.TypeRemote, ID: "missing"}, day, "08:00:00"))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestSessionRepository_OpenLookups(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()

	employees := postgresql.NewEmployeeRepository(setup.DB)
	sessions := postgresql.NewAttendanceRepository(setup.DB)

	ana := seedEmployee(t, employees, employee.TypeOnsite, "1001", "04A32B1C", nil)
	luis := seedEmployee(t, employees, employee.TypeRemote, "1001", "0B7713FE", nil)

	older, err := sessions.Create(ctx, openSession(ana.Ref(), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), "22:00:00"))
	require.NoError(t, err)
	newer, err := sessions.Create(ctx, openSession(ana.Ref(), time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "08:00:00"))
	require.NoError(t, err)
	_, err = sessions.Create(ctx, openSession(luis.Ref(), time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "07:00:00"))
	require.NoError(t, err)

	open, err := sessions.FindOpenSessions(ctx, ana.Ref())
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, newer.ID, open[0].ID)
	assert.Equal(t, older.ID, open[1].ID)

	cutoff := time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC)
	stale, err := sessions.ListStaleOpen(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, older.ID, stale[0].ID)

	date := "2025-03-14"
	list, total, err := sessions.List(ctx, attendance.SessionFilter{Date: &date, Page: 1, Limit: 10, SortBy: "entry_time", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].EmployeeName)
	assert.Equal(t, "Employee 1001", *list[0].EmployeeName)
	assert.Equal(t, employee.TypeRemote, list[0].EmployeeType)

	got, err := sessions.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", got.EntryTime.String())

	require.NoError(t, sessions.Delete(ctx, newer.ID))
	_, err = sessions.GetByID(ctx, newer.ID)
	assert.ErrorIs(t, err, attendance.ErrSessionNotFound)
	assert.ErrorIs(t, sessions.Delete(ctx, newer.ID), attendance.ErrSessionNotFound)
}

func TestEmployeeRepository_Constraints(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()

	employees := postgresql.NewEmployeeRepository(setup.DB)
	schedules := postgresql.NewScheduleRepository(setup.DB)

	office, err := schedules.Create(ctx, schedule.Schedule{
		ID:     newID(),
		Name:   "Office",
		Start1: timeofday.MustParse("09:00:00"),
		End1:   timeofday.MustParse("17:00:00"),
	})
	require.NoError(t, err)

	ana := seedEmployee(t, employees, employee.TypeOnsite, "1001", "04A32B1C", &office.ID)

	_, err = employees.Create(ctx, employee.Employee{
		ID: "1001", Type: employee.TypeOnsite, FullName: "Dup", IdentificationNumber: "x", Active: true,
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeExists)

	luis := seedEmployee(t, employees, employee.TypeRemote, "1001", "0B7713FE", nil)
	_, err = employees.AssignBadge(ctx, luis.Ref(), "04A32B1C", newID())
	assert.ErrorIs(t, err, employee.ErrBadgeAlreadyAssigned)

	found, err := employees.GetByBadgeUID(ctx, "04A32B1C")
	require.NoError(t, err)
	assert.Equal(t, ana.Ref(), found.Ref())

	count, err := employees.CountBySchedule(ctx, office.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.ErrorIs(t, schedules.Delete(ctx, office.ID), schedule.ErrScheduleInUse)

	require.NoError(t, employees.Deactivate(ctx, ana.Ref()))
	_, err = employees.GetByBadgeUID(ctx, "04A32B1C")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	updated, err := employees.Update(ctx, ana.Ref(), employee.UpdateEmployeeRequest{ClearSchedule: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ScheduleID)
	assert.False(t, updated.Active)
}

func TestSessionEngine_ConcurrentInstances(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()

	employees := postgresql.NewEmployeeRepository(setup.DB)
	schedules := postgresql.NewScheduleRepository(setup.DB)
	sessions := postgresql.NewAttendanceRepository(setup.DB)

	seedEmployee(t, employees, employee.TypeOnsite, "1001", "04A32B1C", nil)

	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	cfg := attendanceservice.EngineConfig{
		Location:         loc,
		LateGraceMinutes: 5,
		MaxSessionAge:    24 * time.Hour,
		OperationTimeout: 5 * time.Second,
		ConflictRetries:  3,
	}

	// Separate lock sets behave like two API instances sharing one database.
	engines := []attendance.SessionEngine{
		attendanceservice.NewSessionEngine(sessions, employees, schedules, keylock.New(), cfg),
		attendanceservice.NewSessionEngine(sessions, employees, schedules, keylock.New(), cfg),
	}

	ts := "2025-03-14 08:00:00"
	var wg sync.WaitGroup
	results := make([]attendance.EventResult, len(engines))
	errs := make([]error, len(engines))
	for i, eng := range engines {
		wg.Add(1)
		go func(i int, eng attendance.SessionEngine) {
			defer wg.Done()
			results[i], errs[i] = eng.RecordEvent(ctx, attendance.RecordEventRequest{
				BadgeUID:  "04A32B1C",
				Timestamp: &ts,
				Source:    attendance.SourceBadge,
			})
		}(i, eng)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	entradas := 0
	for _, r := range results {
		if r.Type == attendance.EventEntrada {
			entradas++
		}
	}
	assert.Equal(t, 1, entradas)

	open, err := sessions.FindOpenSessions(ctx, employee.Ref{Type: employee.TypeOnsite, ID: "1001"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(open), 1)
}
