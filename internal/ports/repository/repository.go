package repository

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

// ErrEmployeeNotFound is returned when an employee lookup by ID misses.
var ErrEmployeeNotFound = errors.New("employee not found")

// EmployeeDirectory exposes the employee facts the core needs: badge
// resolution and work-schedule data. Vacations and business trips are only
// ever consulted through the two boolean lookups.
type EmployeeDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	FindByCard(ctx context.Context, cardNumber string) (*model.Employee, error)
	ListActive(ctx context.Context) ([]model.Employee, error)
	HasVacationOnDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (bool, error)
	HasBusinessTripOnDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (bool, error)
}

// UnitStore is the view of the store available inside one rebuild
// transaction. Every call operates on the (employee, date) unit the
// transaction was opened for.
type UnitStore interface {
	EventsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.RawAccessEvent, error)
	SessionsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.Session, error)
	// DeleteRebuildableSessions removes the auto and open sessions for the
	// unit. With force set it also removes manual and closed_manual ones.
	DeleteRebuildableSessions(ctx context.Context, employeeID uuid.UUID, date time.Time, force bool) (int64, error)
	InsertSessions(ctx context.Context, sessions []model.Session) error
	SaveSummary(ctx context.Context, summary *model.DaySummary) error
	MarkEventsProcessed(ctx context.Context, eventIDs []uuid.UUID) error
}

// Repository is the storage contract for the reprocessing pipeline.
type Repository interface {
	// RebuildDay runs fn inside a single transaction that holds the row lock
	// on the unit's day summary. Concurrent rebuilds of the same
	// (employee, date) serialize on that lock; any error rolls the whole
	// transaction back.
	RebuildDay(ctx context.Context, employeeID uuid.UUID, date time.Time, fn func(ctx context.Context, unit UnitStore) error) error

	InsertEvent(ctx context.Context, ev *model.RawAccessEvent) error

	// Read access for API callers, outside any rebuild transaction.
	SessionsForDay(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]model.Session, error)
	GetSummary(ctx context.Context, employeeID uuid.UUID, date time.Time) (*model.DaySummary, error)
	ListSummaries(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.DaySummary, error)
}
