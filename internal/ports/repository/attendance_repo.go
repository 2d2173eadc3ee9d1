package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttendanceRepository is the concrete implementation for a PostgreSQL database.
type AttendanceRepository struct {
	DB *sql.DB
}

// NewAttendanceRepository create new instance
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// RebuildDay opens the unit transaction. The first statement upserts the
// summary row for (employee, date) and keeps it locked, so two rebuilds of
// the same unit cannot interleave; rebuilds of different units do not block
// each other.
func (r *AttendanceRepository) RebuildDay(ctx context.Context, employeeID uuid.UUID, date time.Time, fn func(ctx context.Context, unit UnitStore) error) error {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.employeeId", employeeID.String()),
		attribute.String("app.date", date.Format("2006-01-02")),
	)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild tx: %w", err)
	}
	defer tx.Rollback()

	// The ON CONFLICT UPDATE is a no-op write whose only purpose is taking
	// the row lock on the unique (employee_id, date) row.
	lock := `INSERT INTO work_day_summaries (id, employee_id, date)
             VALUES ($1, $2, $3)
             ON CONFLICT (employee_id, date) DO UPDATE SET employee_id = EXCLUDED.employee_id`
	if _, err := tx.ExecContext(ctx, lock, uuid.New(), employeeID, date); err != nil {
		return fmt.Errorf("lock summary row: %w", err)
	}

	if err := fn(ctx, &txUnitStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild tx: %w", err)
	}
	return nil
}

// InsertEvent stores a raw device event. Events with an unresolved employee
// are stored too; they just never feed session building. Callers that pull
// from the vendor API pass deterministic IDs, so re-syncing a day never
// duplicates events.
func (r *AttendanceRepository) InsertEvent(ctx context.Context, ev *model.RawAccessEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	query := `INSERT INTO skud_events (id, device_id, employee_id, card_number, event_type, event_time, raw_data, is_processed)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              ON CONFLICT (id) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query,
		ev.ID, ev.DeviceID, nullableUUID(ev.EmployeeID), ev.CardNumber,
		string(ev.EventType), ev.EventTime, ev.RawData, ev.IsProcessed,
	)
	return err
}

func (r *AttendanceRepository) SessionsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.Session, error) {
	return scanSessions(ctx, r.DB, employeeID, date)
}

func (r *AttendanceRepository) GetSummary(ctx context.Context, employeeID uuid.UUID, date time.Time) (*model.DaySummary, error) {
	query := summarySelect + ` WHERE employee_id = $1 AND date = $2`
	row := r.DB.QueryRowContext(ctx, query, employeeID, date)

	s, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *AttendanceRepository) ListSummaries(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.DaySummary, error) {
	query := summarySelect + ` WHERE employee_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date`
	rows, err := r.DB.QueryContext(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DaySummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// txUnitStore serves one rebuild transaction.
type txUnitStore struct {
	tx *sql.Tx
}

func (u *txUnitStore) EventsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.RawAccessEvent, error) {
	query := `SELECT id, device_id, employee_id, card_number, event_type, event_time, raw_data, is_processed, created_at
              FROM skud_events
              WHERE employee_id = $1 AND event_time >= $2 AND event_time < $3
              ORDER BY event_time`
	rows, err := u.tx.QueryContext(ctx, query, employeeID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RawAccessEvent
	for rows.Next() {
		var ev model.RawAccessEvent
		var empID sql.Null[uuid.UUID]
		var eventType string
		if err := rows.Scan(&ev.ID, &ev.DeviceID, &empID, &ev.CardNumber, &eventType,
			&ev.EventTime, &ev.RawData, &ev.IsProcessed, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if empID.Valid {
			ev.EmployeeID = &empID.V
		}
		ev.EventType = model.EventKind(eventType)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (u *txUnitStore) SessionsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.Session, error) {
	return scanSessions(ctx, u.tx, employeeID, date)
}

func (u *txUnitStore) DeleteRebuildableSessions(ctx context.Context, employeeID uuid.UUID, date time.Time, force bool) (int64, error) {
	query := `DELETE FROM work_sessions WHERE employee_id = $1 AND date = $2 AND status IN ('auto', 'open')`
	if force {
		query = `DELETE FROM work_sessions WHERE employee_id = $1 AND date = $2`
	}

	res, err := u.tx.ExecContext(ctx, query, employeeID, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (u *txUnitStore) InsertSessions(ctx context.Context, sessions []model.Session) error {
	insertSession := `INSERT INTO work_sessions (id, employee_id, date, start_time, end_time, duration_seconds, status, manual_reason, corrected_by)
                      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	insertLink := `INSERT INTO work_session_events (session_id, event_id) VALUES ($1, $2)`

	for i := range sessions {
		s := &sessions[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		_, err := u.tx.ExecContext(ctx, insertSession,
			s.ID, s.EmployeeID, s.Date, s.StartTime, s.EndTime,
			s.DurationSeconds, string(s.Status), s.ManualReason, s.CorrectedBy,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		for _, evID := range s.SourceEventIDs {
			if _, err := u.tx.ExecContext(ctx, insertLink, s.ID, evID); err != nil {
				return fmt.Errorf("link source event: %w", err)
			}
		}
	}
	return nil
}

func (u *txUnitStore) SaveSummary(ctx context.Context, s *model.DaySummary) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query := `INSERT INTO work_day_summaries (id, employee_id, date, first_entry, last_exit,
                  total_seconds_in_office, expected_seconds, overtime_seconds, underwork_seconds,
                  sessions_count, status, has_missing_exit, has_manual_corrections, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
              ON CONFLICT (employee_id, date) DO UPDATE SET
                  first_entry = EXCLUDED.first_entry,
                  last_exit = EXCLUDED.last_exit,
                  total_seconds_in_office = EXCLUDED.total_seconds_in_office,
                  expected_seconds = EXCLUDED.expected_seconds,
                  overtime_seconds = EXCLUDED.overtime_seconds,
                  underwork_seconds = EXCLUDED.underwork_seconds,
                  sessions_count = EXCLUDED.sessions_count,
                  status = EXCLUDED.status,
                  has_missing_exit = EXCLUDED.has_missing_exit,
                  has_manual_corrections = EXCLUDED.has_manual_corrections,
                  updated_at = now()`
	_, err := u.tx.ExecContext(ctx, query,
		s.ID, s.EmployeeID, s.Date, s.FirstEntry, s.LastExit,
		s.TotalSecondsInOffice, s.ExpectedSeconds, s.OvertimeSeconds, s.UnderworkSeconds,
		s.SessionsCount, string(s.Status), s.HasMissingExit, s.HasManualCorrections,
	)
	return err
}

func (u *txUnitStore) MarkEventsProcessed(ctx context.Context, eventIDs []uuid.UUID) error {
	for _, id := range eventIDs {
		if _, err := u.tx.ExecContext(ctx, `UPDATE skud_events SET is_processed = true WHERE id = $1`, id); err != nil {
			return err
		}
	}
	return nil
}

// querier lets the session scan helpers run against either the pool or a tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanSessions(ctx context.Context, q querier, employeeID uuid.UUID, date time.Time) ([]model.Session, error) {
	query := `SELECT s.id, s.employee_id, s.date, s.start_time, s.end_time, s.duration_seconds,
                     s.status, s.manual_reason, s.corrected_by
              FROM work_sessions s
              WHERE s.employee_id = $1 AND s.date = $2
              ORDER BY s.start_time`
	rows, err := q.QueryContext(ctx, query, employeeID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		var s model.Session
		var end sql.NullTime
		var status string
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.Date, &s.StartTime, &end,
			&s.DurationSeconds, &status, &s.ManualReason, &s.CorrectedBy); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			s.EndTime = &t
		}
		s.Status = model.SessionStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

const summarySelect = `SELECT id, employee_id, date, first_entry, last_exit,
       total_seconds_in_office, expected_seconds, overtime_seconds, underwork_seconds,
       sessions_count, status, has_missing_exit, has_manual_corrections, updated_at
FROM work_day_summaries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*model.DaySummary, error) {
	var s model.DaySummary
	var firstEntry, lastExit sql.NullTime
	var status string
	err := row.Scan(&s.ID, &s.EmployeeID, &s.Date, &firstEntry, &lastExit,
		&s.TotalSecondsInOffice, &s.ExpectedSeconds, &s.OvertimeSeconds, &s.UnderworkSeconds,
		&s.SessionsCount, &status, &s.HasMissingExit, &s.HasManualCorrections, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if firstEntry.Valid {
		t := firstEntry.Time
		s.FirstEntry = &t
	}
	if lastExit.Valid {
		t := lastExit.Time
		s.LastExit = &t
	}
	s.Status = model.SummaryStatus(status)
	return &s, nil
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}
