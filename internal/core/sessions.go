package core

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// MinSessionSeconds filters double-badge artifacts: intervals shorter
	// than this are noise, not presence, and are dropped outright.
	MinSessionSeconds = 3 * 60
	// MaxSessionSeconds flags sessions longer than a day. They are kept but
	// almost always mean a missed exit on a previous day.
	MaxSessionSeconds = 24 * 60 * 60
)

// BuildSessions reconstructs presence sessions from one employee's events for
// one date, ordered ascending by timestamp. Every produced session carries
// status auto, except a trailing unmatched entry which becomes an open one.
//
// A second entry with no exit in between closes the pending session at the
// timestamp of the event immediately preceding it, not at the new entry. That
// is long-standing observed device behavior; with nothing between the two
// entries it collapses the first session to zero length and drops it.
func BuildSessions(ctx context.Context, employeeID uuid.UUID, date time.Time, events []NormalizedEvent) []model.Session {
	var sessions []model.Session

	pending := -1 // index of the entry event that opened the current session

	for i, ev := range events {
		switch ev.Direction {
		case model.DirectionEntry:
			if pending >= 0 {
				if s, ok := closeSession(ctx, employeeID, date, events[pending], events[i-1].Event); ok {
					sessions = append(sessions, s)
				}
			}
			pending = i

		case model.DirectionExit:
			if pending < 0 {
				// Orphan exit: nothing to close, nothing to emit.
				log.Ctx(ctx).Debug().
					Time("event_time", ev.Event.EventTime).
					Msg("Exit event with no pending session, ignored")
				continue
			}
			if s, ok := closeSession(ctx, employeeID, date, events[pending], ev.Event); ok {
				sessions = append(sessions, s)
			}
			pending = -1
		}
	}

	if pending >= 0 {
		entry := events[pending]
		sessions = append(sessions, model.Session{
			EmployeeID:     employeeID,
			Date:           date,
			StartTime:      entry.Event.EventTime,
			Status:         model.SessionOpen,
			SourceEventIDs: []uuid.UUID{entry.Event.ID},
		})
		log.Ctx(ctx).Warn().
			Str("employee_id", employeeID.String()).
			Time("start_time", entry.Event.EventTime).
			Msg("No exit found, session left open")
	}

	return sessions
}

// closeSession finishes a pending session at the exit event's timestamp and
// applies the duration policy. It returns false for dropped sessions.
func closeSession(ctx context.Context, employeeID uuid.UUID, date time.Time, entry NormalizedEvent, exit model.RawAccessEvent) (model.Session, bool) {
	duration := exit.EventTime.Sub(entry.Event.EventTime)
	seconds := int64(duration.Seconds())

	if seconds < MinSessionSeconds {
		log.Ctx(ctx).Warn().
			Str("employee_id", employeeID.String()).
			Int64("duration_seconds", seconds).
			Msg("Session below minimum duration, dropped")
		return model.Session{}, false
	}

	if seconds > MaxSessionSeconds {
		log.Ctx(ctx).Warn().
			Str("employee_id", employeeID.String()).
			Int64("duration_seconds", seconds).
			Msg("Session exceeds maximum duration, kept")
	}

	end := exit.EventTime
	ids := []uuid.UUID{entry.Event.ID}
	if exit.ID != entry.Event.ID {
		ids = append(ids, exit.ID)
	}

	return model.Session{
		EmployeeID:      employeeID,
		Date:            date,
		StartTime:       entry.Event.EventTime,
		EndTime:         &end,
		DurationSeconds: seconds,
		Status:          model.SessionAuto,
		SourceEventIDs:  ids,
	}, true
}
