package core

import (
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

func fullTimeEmployee() model.Employee {
	return model.Employee{
		ID:           uuid.New(),
		FullName:     "Test Employee",
		DailyHours:   8,
		WorkFraction: 1.0,
		IsActive:     true,
	}
}

func closedSession(emp model.Employee, start, end time.Time) model.Session {
	return model.Session{
		ID:              uuid.New(),
		EmployeeID:      emp.ID,
		Date:            testDay,
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: int64(end.Sub(start).Seconds()),
		Status:          model.SessionAuto,
	}
}

func TestAggregateDay_OvertimeScenario(t *testing.T) {
	// entry 08:58, exit 18:02 against an 8h schedule: 32640s worked,
	// 3840s overtime.
	emp := fullTimeEmployee()
	sessions := []model.Session{closedSession(emp, at(8, 58, 0), at(18, 2, 0))}

	s := AggregateDay(emp, testDay, sessions, DayFacts{}, at(23, 0, 0))

	if s.TotalSecondsInOffice != 32640 {
		t.Errorf("total = %d, want 32640", s.TotalSecondsInOffice)
	}
	if s.ExpectedSeconds != 28800 {
		t.Errorf("expected = %d, want 28800", s.ExpectedSeconds)
	}
	if s.OvertimeSeconds != 3840 {
		t.Errorf("overtime = %d, want 3840", s.OvertimeSeconds)
	}
	if s.UnderworkSeconds != 0 {
		t.Errorf("underwork = %d, want 0", s.UnderworkSeconds)
	}
	if s.Status != model.StatusPresent {
		t.Errorf("status = %q, want present", s.Status)
	}
	if s.FirstEntry == nil || !s.FirstEntry.Equal(at(8, 58, 0)) {
		t.Errorf("first_entry = %v, want 08:58", s.FirstEntry)
	}
	if s.LastExit == nil || !s.LastExit.Equal(at(18, 2, 0)) {
		t.Errorf("last_exit = %v, want 18:02", s.LastExit)
	}
}

func TestAggregateDay_OpenSessionIsProblem(t *testing.T) {
	emp := fullTimeEmployee()
	sessions := []model.Session{{
		ID:         uuid.New(),
		EmployeeID: emp.ID,
		Date:       testDay,
		StartTime:  at(9, 0, 0),
		Status:     model.SessionOpen,
	}}

	s := AggregateDay(emp, testDay, sessions, DayFacts{}, at(17, 0, 0))

	if s.Status != model.StatusProblem {
		t.Errorf("status = %q, want problem", s.Status)
	}
	if !s.HasMissingExit {
		t.Error("expected has_missing_exit")
	}
	if s.LastExit != nil {
		t.Errorf("open session must not contribute a last_exit, got %v", s.LastExit)
	}
	// Open session measured up to "now": 8 hours.
	if s.TotalSecondsInOffice != 8*3600 {
		t.Errorf("total = %d, want %d", s.TotalSecondsInOffice, 8*3600)
	}
}

func TestAggregateDay_ExcusedOverridesEverything(t *testing.T) {
	emp := fullTimeEmployee()
	sessions := []model.Session{closedSession(emp, at(9, 0, 0), at(18, 0, 0))}

	s := AggregateDay(emp, testDay, sessions, DayFacts{Excused: true}, at(23, 0, 0))

	if s.Status != model.StatusExcused {
		t.Errorf("status = %q, want excused", s.Status)
	}
	if s.ExpectedSeconds != 0 {
		t.Errorf("expected = %d, want 0 on an excused day", s.ExpectedSeconds)
	}
	// Everything worked on an excused day is overtime by construction.
	if s.OvertimeSeconds != s.TotalSecondsInOffice {
		t.Errorf("overtime = %d, want %d", s.OvertimeSeconds, s.TotalSecondsInOffice)
	}
}

func TestAggregateDay_NoSessionsAbsent(t *testing.T) {
	emp := fullTimeEmployee()

	s := AggregateDay(emp, testDay, nil, DayFacts{}, at(23, 0, 0))

	if s.Status != model.StatusAbsent {
		t.Errorf("status = %q, want absent", s.Status)
	}
	if s.SessionsCount != 0 || s.TotalSecondsInOffice != 0 {
		t.Errorf("empty day should have zero counters, got count=%d total=%d", s.SessionsCount, s.TotalSecondsInOffice)
	}
	if s.UnderworkSeconds != 28800 {
		t.Errorf("underwork = %d, want the full expected day", s.UnderworkSeconds)
	}
	if s.FirstEntry != nil || s.LastExit != nil {
		t.Error("expected nil first_entry and last_exit")
	}
}

func TestAggregateDay_ManualSessionMakesPartial(t *testing.T) {
	emp := fullTimeEmployee()
	manual := closedSession(emp, at(9, 0, 0), at(18, 0, 0))
	manual.Status = model.SessionManual

	s := AggregateDay(emp, testDay, []model.Session{manual}, DayFacts{}, at(23, 0, 0))

	if s.Status != model.StatusPartial {
		t.Errorf("status = %q, want partial", s.Status)
	}
	if !s.HasManualCorrections {
		t.Error("expected has_manual_corrections")
	}
}

func TestAggregateDay_ShortDayIsPartial(t *testing.T) {
	emp := fullTimeEmployee()
	// 3 hours against an 8 hour schedule: under half of the expected time.
	sessions := []model.Session{closedSession(emp, at(9, 0, 0), at(12, 0, 0))}

	s := AggregateDay(emp, testDay, sessions, DayFacts{}, at(23, 0, 0))

	if s.Status != model.StatusPartial {
		t.Errorf("status = %q, want partial", s.Status)
	}
	if s.UnderworkSeconds != 5*3600 {
		t.Errorf("underwork = %d, want %d", s.UnderworkSeconds, 5*3600)
	}
}

func TestAggregateDay_OvertimeUnderworkExclusive(t *testing.T) {
	emp := fullTimeEmployee()
	cases := [][]model.Session{
		nil,
		{closedSession(emp, at(9, 0, 0), at(12, 0, 0))},
		{closedSession(emp, at(8, 0, 0), at(19, 0, 0))},
		{closedSession(emp, at(9, 0, 0), at(17, 0, 0))},
	}

	for i, sessions := range cases {
		s := AggregateDay(emp, testDay, sessions, DayFacts{}, at(23, 0, 0))
		if s.OvertimeSeconds > 0 && s.UnderworkSeconds > 0 {
			t.Errorf("case %d: overtime=%d and underwork=%d are both nonzero", i, s.OvertimeSeconds, s.UnderworkSeconds)
		}
	}
}

func TestAggregateDay_WorkFractionScalesExpected(t *testing.T) {
	emp := fullTimeEmployee()
	emp.WorkFraction = 0.5

	s := AggregateDay(emp, testDay, nil, DayFacts{}, at(23, 0, 0))

	if s.ExpectedSeconds != 14400 {
		t.Errorf("expected = %d, want 14400 for a half-time employee", s.ExpectedSeconds)
	}
}
