// Package memory holds in-memory implementations of the repository
// contracts. They back unit tests and keep the transactional semantics of
// the PostgreSQL implementation: a rebuild either fully applies or leaves
// the store untouched.
package memory

import (
	"context"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/google/uuid"
)

type unitKey struct {
	employeeID uuid.UUID
	date       time.Time
}

// Absence is a vacation or business trip interval, inclusive on both ends.
type Absence struct {
	EmployeeID uuid.UUID
	Start      time.Time
	End        time.Time
}

// Store implements repository.Repository and repository.EmployeeDirectory.
type Store struct {
	mu sync.Mutex

	events    []model.RawAccessEvent
	sessions  map[uuid.UUID]model.Session
	summaries map[unitKey]model.DaySummary
	employees map[uuid.UUID]model.Employee
	vacations []Absence
	trips     []Absence

	// FailSaveSummary makes the next SaveSummary inside a rebuild fail,
	// simulating a transient storage error mid-transaction.
	FailSaveSummary error
}

func NewStore() *Store {
	return &Store{
		sessions:  make(map[uuid.UUID]model.Session),
		summaries: make(map[unitKey]model.DaySummary),
		employees: make(map[uuid.UUID]model.Employee),
	}
}

// ── Test seeding ─────────────────────────────────────────────────────────────

func (s *Store) AddEmployee(emp model.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
}

func (s *Store) AddVacation(a Absence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vacations = append(s.vacations, a)
}

func (s *Store) AddBusinessTrip(a Absence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = append(s.trips, a)
}

func (s *Store) AddSession(sess model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	s.sessions[sess.ID] = sess
}

// Events returns a copy of every stored raw event.
func (s *Store) Events() []model.RawAccessEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RawAccessEvent, len(s.events))
	copy(out, s.events)
	return out
}

// ── repository.Repository ────────────────────────────────────────────────────

func (s *Store) RebuildDay(ctx context.Context, employeeID uuid.UUID, date time.Time, fn func(ctx context.Context, unit repository.UnitStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Snapshot for rollback.
	sessionsBackup := make(map[uuid.UUID]model.Session, len(s.sessions))
	for k, v := range s.sessions {
		sessionsBackup[k] = v
	}
	summariesBackup := make(map[unitKey]model.DaySummary, len(s.summaries))
	for k, v := range s.summaries {
		summariesBackup[k] = v
	}
	eventsBackup := make([]model.RawAccessEvent, len(s.events))
	copy(eventsBackup, s.events)

	if err := fn(ctx, &unitStore{store: s}); err != nil {
		s.sessions = sessionsBackup
		s.summaries = summariesBackup
		s.events = eventsBackup
		return err
	}
	return nil
}

func (s *Store) InsertEvent(ctx context.Context, ev *model.RawAccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	for _, existing := range s.events {
		if existing.ID == ev.ID {
			return nil
		}
	}
	s.events = append(s.events, *ev)
	return nil
}

func (s *Store) SessionsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionsForDayLocked(employeeID, date), nil
}

func (s *Store) GetSummary(ctx context.Context, employeeID uuid.UUID, date time.Time) (*model.DaySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sum, ok := s.summaries[unitKey{employeeID, model.DateOf(date)}]; ok {
		out := sum
		return &out, nil
	}
	return nil, nil
}

func (s *Store) ListSummaries(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.DaySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.DaySummary
	for date := model.DateOf(from); !date.After(model.DateOf(to)); date = date.AddDate(0, 0, 1) {
		if sum, ok := s.summaries[unitKey{employeeID, date}]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

// ── repository.EmployeeDirectory ─────────────────────────────────────────────

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if emp, ok := s.employees[id]; ok {
		out := emp
		return &out, nil
	}
	return nil, repository.ErrEmployeeNotFound
}

func (s *Store) FindByCard(ctx context.Context, cardNumber string) (*model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, emp := range s.employees {
		if emp.CardNumber == cardNumber {
			out := emp
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ListActive(ctx context.Context) ([]model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Employee
	for _, emp := range s.employees {
		if emp.IsActive {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (s *Store) HasVacationOnDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return covers(s.vacations, employeeID, date), nil
}

func (s *Store) HasBusinessTripOnDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return covers(s.trips, employeeID, date), nil
}

func covers(absences []Absence, employeeID uuid.UUID, date time.Time) bool {
	date = model.DateOf(date)
	for _, a := range absences {
		if a.EmployeeID == employeeID && !date.Before(model.DateOf(a.Start)) && !date.After(model.DateOf(a.End)) {
			return true
		}
	}
	return false
}

func (s *Store) sessionsForDayLocked(employeeID uuid.UUID, date time.Time) []model.Session {
	date = model.DateOf(date)
	var out []model.Session
	for _, sess := range s.sessions {
		if sess.EmployeeID == employeeID && model.DateOf(sess.Date).Equal(date) {
			out = append(out, sess)
		}
	}
	// Stable order by start time, matching the SQL queries.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartTime.Before(out[j-1].StartTime); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// unitStore mutates the parent store directly; RebuildDay already holds the
// lock and restores the snapshot on error.
type unitStore struct {
	store *Store
}

func (u *unitStore) EventsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.RawAccessEvent, error) {
	date = model.DateOf(date)
	var out []model.RawAccessEvent
	for _, ev := range u.store.events {
		if ev.EmployeeID != nil && *ev.EmployeeID == employeeID && model.DateOf(ev.EventTime).Equal(date) {
			out = append(out, ev)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].EventTime.Before(out[j-1].EventTime); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (u *unitStore) SessionsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.Session, error) {
	return u.store.sessionsForDayLocked(employeeID, date), nil
}

func (u *unitStore) DeleteRebuildableSessions(ctx context.Context, employeeID uuid.UUID, date time.Time, force bool) (int64, error) {
	date = model.DateOf(date)
	var deleted int64
	for id, sess := range u.store.sessions {
		if sess.EmployeeID != employeeID || !model.DateOf(sess.Date).Equal(date) {
			continue
		}
		rebuildable := sess.Status == model.SessionAuto || sess.Status == model.SessionOpen
		if force || rebuildable {
			delete(u.store.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (u *unitStore) InsertSessions(ctx context.Context, sessions []model.Session) error {
	for _, sess := range sessions {
		if sess.ID == uuid.Nil {
			sess.ID = uuid.New()
		}
		u.store.sessions[sess.ID] = sess
	}
	return nil
}

func (u *unitStore) SaveSummary(ctx context.Context, summary *model.DaySummary) error {
	if err := u.store.FailSaveSummary; err != nil {
		u.store.FailSaveSummary = nil
		return err
	}
	key := unitKey{summary.EmployeeID, model.DateOf(summary.Date)}
	if existing, ok := u.store.summaries[key]; ok {
		summary.ID = existing.ID
	} else if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	u.store.summaries[key] = *summary
	return nil
}

func (u *unitStore) MarkEventsProcessed(ctx context.Context, eventIDs []uuid.UUID) error {
	marked := make(map[uuid.UUID]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		marked[id] = struct{}{}
	}
	for i := range u.store.events {
		if _, ok := marked[u.store.events[i].ID]; ok {
			u.store.events[i].IsProcessed = true
		}
	}
	return nil
}
