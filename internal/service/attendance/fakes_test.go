package attendance

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/schedule"
)

// fakeSessionStore mimics the postgres store, including the partial unique
// index on open sessions per employee and date.
type fakeSessionStore struct {
	mu       sync.Mutex
	loc      *time.Location
	sessions []attendance.Session
	seq      int
	writes   int
	maxOpen  map[string]int

	findErr   error
	createErr error
	// blockFind makes FindOpenSessions wait for ctx cancellation.
	blockFind bool
	// onCreate runs before the insert; returning an error aborts it.
	onCreate func(s *fakeSessionStore, session attendance.Session) error
}

func newFakeSessionStore(loc *time.Location) *fakeSessionStore {
	return &fakeSessionStore{loc: loc, maxOpen: make(map[string]int)}
}

var baseCreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// seed inserts a session without counting it as an engine write.
func (f *fakeSessionStore) seed(s attendance.Session) attendance.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(s)
}

func (f *fakeSessionStore) insertLocked(s attendance.Session) attendance.Session {
	f.seq++
	s.CreatedAt = baseCreatedAt.Add(time.Duration(f.seq) * time.Second)
	s.UpdatedAt = s.CreatedAt
	f.sessions = append(f.sessions, s)
	f.trackOpenLocked(s.EmployeeRef())
	return s
}

func (f *fakeSessionStore) trackOpenLocked(ref employee.Ref) {
	n := 0
	for _, s := range f.sessions {
		if s.EmployeeRef() == ref && s.Open() {
			n++
		}
	}
	if n > f.maxOpen[ref.Key()] {
		f.maxOpen[ref.Key()] = n
	}
}

func (f *fakeSessionStore) Create(ctx context.Context, session attendance.Session) (attendance.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return attendance.Session{}, f.createErr
	}
	if f.onCreate != nil {
		if err := f.onCreate(f, session); err != nil {
			return attendance.Session{}, err
		}
	}
	for _, s := range f.sessions {
		if s.EmployeeRef() == session.EmployeeRef() && s.Open() && s.Date.Equal(session.Date) {
			return attendance.Session{}, attendance.ErrOpenSessionConflict
		}
	}
	f.writes++
	return f.insertLocked(session), nil
}

func (f *fakeSessionStore) Close(ctx context.Context, id string, closure attendance.Closure) (attendance.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, s := range f.sessions {
		if s.ID != id {
			continue
		}
		if !s.Open() {
			return attendance.Session{}, attendance.ErrOpenSessionConflict
		}
		exit := closure.ExitTime
		seconds := int64(closure.Duration / time.Second)
		src := closure.Source
		s.ExitTime = &exit
		s.DurationSeconds = &seconds
		s.ExitSource = &src
		s.AutoClosed = closure.AutoClosed
		f.sessions[i] = s
		f.writes++
		return s, nil
	}
	return attendance.Session{}, attendance.ErrOpenSessionConflict
}

func (f *fakeSessionStore) FindOpenSessions(ctx context.Context, ref employee.Ref) ([]attendance.Session, error) {
	if f.blockFind {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}

	var open []attendance.Session
	for _, s := range f.sessions {
		if s.EmployeeRef() == ref && s.Open() {
			open = append(open, s)
		}
	}
	slices.SortFunc(open, func(a, b attendance.Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return open, nil
}

func (f *fakeSessionStore) ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]attendance.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var stale []attendance.Session
	for _, s := range f.sessions {
		if s.Open() && s.EntryInstant(f.loc).Before(cutoff) {
			stale = append(stale, s)
		}
	}
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (f *fakeSessionStore) List(ctx context.Context, filter attendance.SessionFilter) ([]attendance.Session, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []attendance.Session
	for _, s := range f.sessions {
		if filter.EmployeeID != nil && s.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.OpenOnly && !s.Open() {
			continue
		}
		out = append(out, s)
	}
	total := int64(len(out))
	start := (filter.Page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := min(start+filter.Limit, len(out))
	return out[start:end], total, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sessions {
		if s.ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return attendance.ErrSessionNotFound
}

func (f *fakeSessionStore) byRef(ref employee.Ref) []attendance.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Session
	for _, s := range f.sessions {
		if s.EmployeeRef() == ref {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeSessionStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

type fakeDirectory struct {
	byBadge map[string]employee.Employee
	byRef   map[employee.Ref]employee.Employee
	err     error
}

func newFakeDirectory(emps ...employee.Employee) *fakeDirectory {
	d := &fakeDirectory{
		byBadge: make(map[string]employee.Employee),
		byRef:   make(map[employee.Ref]employee.Employee),
	}
	for _, e := range emps {
		d.byRef[e.Ref()] = e
		if e.BadgeUID != nil {
			d.byBadge[*e.BadgeUID] = e
		}
	}
	return d
}

func (d *fakeDirectory) GetByRef(ctx context.Context, ref employee.Ref) (employee.Employee, error) {
	if d.err != nil {
		return employee.Employee{}, d.err
	}
	e, ok := d.byRef[ref]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (d *fakeDirectory) GetByBadgeUID(ctx context.Context, badgeUID string) (employee.Employee, error) {
	if d.err != nil {
		return employee.Employee{}, d.err
	}
	e, ok := d.byBadge[badgeUID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeCatalog map[string]schedule.Schedule

func (c fakeCatalog) GetByID(ctx context.Context, id string) (schedule.Schedule, error) {
	s, ok := c[id]
	if !ok {
		return schedule.Schedule{}, schedule.ErrScheduleNotFound
	}
	return s, nil
}

var errStoreDown = errors.New("connection refused")
