package core

import (
	"context"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// at builds a timestamp on the test day.
func at(hour, min, sec int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second)
}

func normalizedEvents(employeeID uuid.UUID, pairs ...struct {
	dir model.Direction
	ts  time.Time
}) []NormalizedEvent {
	out := make([]NormalizedEvent, len(pairs))
	for i, p := range pairs {
		id := employeeID
		out[i] = NormalizedEvent{
			Event: model.RawAccessEvent{
				ID:         uuid.New(),
				EmployeeID: &id,
				EventTime:  p.ts,
			},
			Direction: p.dir,
		}
	}
	return out
}

type dirTime = struct {
	dir model.Direction
	ts  time.Time
}

func TestBuildSessions_AlternatingPairs(t *testing.T) {
	empID := uuid.New()
	events := normalizedEvents(empID,
		dirTime{model.DirectionEntry, at(8, 0, 0)},
		dirTime{model.DirectionExit, at(12, 0, 0)},
		dirTime{model.DirectionEntry, at(13, 0, 0)},
		dirTime{model.DirectionExit, at(18, 0, 0)},
	)

	sessions := BuildSessions(context.Background(), empID, testDay, events)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	if got := sessions[0].DurationSeconds; got != 4*3600 {
		t.Errorf("first session duration = %d, want %d", got, 4*3600)
	}
	if got := sessions[1].DurationSeconds; got != 5*3600 {
		t.Errorf("second session duration = %d, want %d", got, 5*3600)
	}
	for i, s := range sessions {
		if s.Status != model.SessionAuto {
			t.Errorf("session %d status = %q, want auto", i, s.Status)
		}
		if len(s.SourceEventIDs) != 2 {
			t.Errorf("session %d should link entry and exit events, got %d ids", i, len(s.SourceEventIDs))
		}
	}
}

func TestBuildSessions_TrailingEntryStaysOpen(t *testing.T) {
	empID := uuid.New()
	events := normalizedEvents(empID,
		dirTime{model.DirectionEntry, at(9, 0, 0)},
	)

	sessions := BuildSessions(context.Background(), empID, testDay, events)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}

	s := sessions[0]
	if s.Status != model.SessionOpen {
		t.Errorf("status = %q, want open", s.Status)
	}
	if s.EndTime != nil {
		t.Errorf("expected nil end time, got %v", s.EndTime)
	}
	if !s.IsOpen() {
		t.Error("expected IsOpen to report true")
	}
}

func TestBuildSessions_DoubleEntryClosesAtPrecedingEvent(t *testing.T) {
	// With nothing between the two entries the preceding event is the first
	// entry itself, so the collapsed session falls under the minimum duration
	// and is dropped. The second entry opens the surviving session.
	empID := uuid.New()
	events := normalizedEvents(empID,
		dirTime{model.DirectionEntry, at(9, 0, 0)},
		dirTime{model.DirectionEntry, at(11, 0, 0)},
		dirTime{model.DirectionExit, at(18, 0, 0)},
	)

	sessions := BuildSessions(context.Background(), empID, testDay, events)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}

	s := sessions[0]
	if !s.StartTime.Equal(at(11, 0, 0)) {
		t.Errorf("session start = %v, want the second entry", s.StartTime)
	}
	if s.DurationSeconds != 7*3600 {
		t.Errorf("duration = %d, want %d", s.DurationSeconds, 7*3600)
	}
}

func TestBuildSessions_SubMinimumDurationDropped(t *testing.T) {
	empID := uuid.New()
	events := normalizedEvents(empID,
		dirTime{model.DirectionEntry, at(9, 0, 0)},
		dirTime{model.DirectionExit, at(9, 2, 59)}, // 179 seconds
	)

	sessions := BuildSessions(context.Background(), empID, testDay, events)
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions for a sub-threshold interval, got %d", len(sessions))
	}
}

func TestBuildSessions_ExactMinimumDurationKept(t *testing.T) {
	empID := uuid.New()
	events := normalizedEvents(empID,
		dirTime{model.DirectionEntry, at(9, 0, 0)},
		dirTime{model.DirectionExit, at(9, 3, 0)}, // exactly 180 seconds
	)

	sessions := BuildSessions(context.Background(), empID, testDay, events)
	if len(sessions) != 1 {
		t.Fatalf("expected the 180s session to be kept, got %d sessions", len(sessions))
	}
}

func TestBuildSessions_OrphanExitIgnored(t *testing.T) {
	empID := uuid.New()
	events := normalizedEvents(empID,
		dirTime{model.DirectionExit, at(7, 0, 0)},
		dirTime{model.DirectionEntry, at(9, 0, 0)},
		dirTime{model.DirectionExit, at(18, 0, 0)},
	)

	sessions := BuildSessions(context.Background(), empID, testDay, events)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if !sessions[0].StartTime.Equal(at(9, 0, 0)) {
		t.Errorf("session start = %v, want 09:00", sessions[0].StartTime)
	}
}

func TestBuildSessions_OverMaximumDurationStillPersisted(t *testing.T) {
	empID := uuid.New()
	events := normalizedEvents(empID,
		dirTime{model.DirectionEntry, at(9, 0, 0)},
		dirTime{model.DirectionExit, at(9, 0, 0).Add(25 * time.Hour)},
	)

	sessions := BuildSessions(context.Background(), empID, testDay, events)
	if len(sessions) != 1 {
		t.Fatalf("expected the over-long session to be kept, got %d sessions", len(sessions))
	}
	if sessions[0].DurationSeconds != 25*3600 {
		t.Errorf("duration = %d, want %d", sessions[0].DurationSeconds, 25*3600)
	}
}

func TestBuildSessions_NoEvents(t *testing.T) {
	sessions := BuildSessions(context.Background(), uuid.New(), testDay, nil)
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
}
