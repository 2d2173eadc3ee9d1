package core

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

// AuditAction names what happened to a unit.
type AuditAction string

const (
	AuditReprocessDay AuditAction = "reprocess_day"
)

// DayState is a point-in-time snapshot of everything the core owns for one
// (employee, date) unit.
type DayState struct {
	Sessions []model.Session   `json:"sessions"`
	Summary  *model.DaySummary `json:"summary,omitempty"`
}

// AuditEntry carries the before/after snapshots of one coordinator call. The
// core does not decide audit policy; it only hands these to whatever recorder
// is attached.
type AuditEntry struct {
	EmployeeID  uuid.UUID   `json:"employeeId"`
	Date        time.Time   `json:"date"`
	Action      AuditAction `json:"action"`
	Description string      `json:"description"`
	Before      DayState    `json:"oldValue"`
	After       DayState    `json:"newValue"`
	ChangedAt   time.Time   `json:"changedAt"`
}

// AuditRecorder is the optional hook external audit-trail consumers attach to
// the coordinator. Recorder failures never fail the reprocess itself.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// ProblemNotifier is told about rebuilt days that landed on status problem,
// so an alerting collaborator can chase the missing exit.
type ProblemNotifier interface {
	NotifyProblemDay(ctx context.Context, employee model.Employee, summary model.DaySummary) error
}
