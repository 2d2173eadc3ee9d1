package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Processor drives the event-to-session pipeline per (employee, date) unit.
// It is the only entry point external callers use; every unit runs inside one
// all-or-nothing storage transaction, and every per-unit failure is converted
// to a boolean plus a log entry at this boundary.
type Processor struct {
	repo      repository.Repository
	employees repository.EmployeeDirectory
	audit     AuditRecorder
	notifier  ProblemNotifier

	// Concurrency bounds how many units batch operations rebuild at once.
	// Size it to the database connection budget.
	Concurrency int

	now func() time.Time
}

// NewProcessor creates the reprocessing coordinator, wiring up the attendance
// repository and the employee directory.
func NewProcessor(repo repository.Repository, employees repository.EmployeeDirectory) *Processor {
	return &Processor{
		repo:        repo,
		employees:   employees,
		Concurrency: 8,
		now:         time.Now,
	}
}

// AttachAuditRecorder turns on before/after state capture for every
// ProcessDay call. Passing nil detaches the hook.
func (p *Processor) AttachAuditRecorder(rec AuditRecorder) {
	p.audit = rec
}

// AttachNotifier registers the alerting collaborator for problem days.
func (p *Processor) AttachNotifier(n ProblemNotifier) {
	p.notifier = n
}

// BatchResult is what batch callers see: counts, never raw per-unit errors.
type BatchResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// ProcessDay rebuilds the auto sessions and the day summary for one
// (employee, date) unit. It returns false on any internal failure, after the
// storage layer has rolled back to the pre-call state.
func (p *Processor) ProcessDay(ctx context.Context, employeeID uuid.UUID, date time.Time) bool {
	return p.processDay(ctx, employeeID, date, false)
}

// ProcessDayForced is ProcessDay with the rebuild extended to manual and
// closed_manual sessions. The usual callers are historical data repairs.
func (p *Processor) ProcessDayForced(ctx context.Context, employeeID uuid.UUID, date time.Time) bool {
	return p.processDay(ctx, employeeID, date, true)
}

func (p *Processor) processDay(ctx context.Context, employeeID uuid.UUID, date time.Time, force bool) bool {
	date = model.DateOf(date)
	logger := log.Ctx(ctx).With().
		Str("employee_id", employeeID.String()).
		Str("date", date.Format("2006-01-02")).
		Logger()

	employee, err := p.employees.Get(ctx, employeeID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load employee")
		return false
	}

	facts, err := p.dayFacts(ctx, employeeID, date)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load vacation and trip facts")
		return false
	}

	var before DayState
	if p.audit != nil {
		if before, err = p.dayState(ctx, employeeID, date); err != nil {
			logger.Error().Err(err).Msg("Failed to capture pre-rebuild state")
			return false
		}
	}

	var after DayState
	var eventsCount int

	err = p.repo.RebuildDay(ctx, employeeID, date, func(ctx context.Context, unit repository.UnitStore) error {
		events, err := unit.EventsForDay(ctx, employeeID, date)
		if err != nil {
			return fmt.Errorf("fetch events: %w", err)
		}
		eventsCount = len(events)

		existing, err := unit.SessionsForDay(ctx, employeeID, date)
		if err != nil {
			return fmt.Errorf("fetch sessions: %w", err)
		}
		warnOnOpenSessionPileup(logger, existing)

		if _, err := unit.DeleteRebuildableSessions(ctx, employeeID, date, force); err != nil {
			return fmt.Errorf("delete stale sessions: %w", err)
		}

		normalized := make([]NormalizedEvent, len(events))
		for i, ev := range events {
			normalized[i] = NormalizedEvent{
				Event:     ev,
				Direction: ResolveDirection(ev),
				Employee:  employee,
			}
		}

		built := BuildSessions(ctx, employeeID, date, normalized)
		if err := unit.InsertSessions(ctx, built); err != nil {
			return fmt.Errorf("insert sessions: %w", err)
		}

		// The summary covers the full surviving set, manual sessions included.
		sessions, err := unit.SessionsForDay(ctx, employeeID, date)
		if err != nil {
			return fmt.Errorf("refetch sessions: %w", err)
		}

		summary := AggregateDay(*employee, date, sessions, facts, p.now())
		if err := unit.SaveSummary(ctx, &summary); err != nil {
			return fmt.Errorf("save summary: %w", err)
		}

		ids := make([]uuid.UUID, len(events))
		for i, ev := range events {
			ids[i] = ev.ID
		}
		if err := unit.MarkEventsProcessed(ctx, ids); err != nil {
			return fmt.Errorf("mark events processed: %w", err)
		}

		after = DayState{Sessions: sessions, Summary: &summary}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Day rebuild failed, rolled back")
		return false
	}

	logger.Info().
		Int("events", eventsCount).
		Int("sessions", after.Summary.SessionsCount).
		Str("status", string(after.Summary.Status)).
		Msg("Day rebuilt")

	if p.audit != nil {
		entry := AuditEntry{
			EmployeeID:  employeeID,
			Date:        date,
			Action:      AuditReprocessDay,
			Description: fmt.Sprintf("rebuilt %d sessions from %d events", after.Summary.SessionsCount, eventsCount),
			Before:      before,
			After:       after,
			ChangedAt:   p.now(),
		}
		if err := p.audit.Record(ctx, entry); err != nil {
			logger.Warn().Err(err).Msg("Audit recorder failed")
		}
	}

	if p.notifier != nil && after.Summary.Status == model.StatusProblem {
		if err := p.notifier.NotifyProblemDay(ctx, *employee, *after.Summary); err != nil {
			logger.Warn().Err(err).Msg("Problem-day notification failed")
		}
	}

	return true
}

// ReprocessPeriod rebuilds every date in [from, to] for one employee. Days
// fail independently; the return value is the number of days that succeeded.
func (p *Processor) ReprocessPeriod(ctx context.Context, employeeID uuid.UUID, from, to time.Time) int {
	processed := 0
	for date := model.DateOf(from); !date.After(model.DateOf(to)); date = date.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			log.Ctx(ctx).Warn().Msg("Period reprocess canceled")
			break
		}
		if p.ProcessDay(ctx, employeeID, date) {
			processed++
		}
	}
	return processed
}

// ReprocessAllForDate rebuilds one date for every active employee with
// bounded concurrency. Units commit independently, so cancellation takes
// effect between units, never inside one.
func (p *Processor) ReprocessAllForDate(ctx context.Context, date time.Time) BatchResult {
	employees, err := p.employees.ListActive(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to list active employees")
		return BatchResult{}
	}

	var mu sync.Mutex
	var result BatchResult

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Concurrency)

	for _, emp := range employees {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok := p.ProcessDay(ctx, emp.ID, date)
			mu.Lock()
			if ok {
				result.Processed++
			} else {
				result.Errors++
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return result
}

func (p *Processor) dayFacts(ctx context.Context, employeeID uuid.UUID, date time.Time) (DayFacts, error) {
	vacation, err := p.employees.HasVacationOnDate(ctx, employeeID, date)
	if err != nil {
		return DayFacts{}, err
	}
	trip, err := p.employees.HasBusinessTripOnDate(ctx, employeeID, date)
	if err != nil {
		return DayFacts{}, err
	}
	return DayFacts{Excused: vacation || trip}, nil
}

func (p *Processor) dayState(ctx context.Context, employeeID uuid.UUID, date time.Time) (DayState, error) {
	sessions, err := p.repo.SessionsForDay(ctx, employeeID, date)
	if err != nil {
		return DayState{}, err
	}
	summary, err := p.repo.GetSummary(ctx, employeeID, date)
	if err != nil {
		return DayState{}, err
	}
	return DayState{Sessions: sessions, Summary: summary}, nil
}

// warnOnOpenSessionPileup reports more than one pre-existing open session for
// a unit. The core does not repair this; it is left to an administrator.
func warnOnOpenSessionPileup(logger zerolog.Logger, sessions []model.Session) {
	open := 0
	for _, s := range sessions {
		if s.IsOpen() {
			open++
		}
	}
	if open > 1 {
		logger.Warn().Int("open_sessions", open).Msg("More than one open session for unit, leaving for manual correction")
	}
}
