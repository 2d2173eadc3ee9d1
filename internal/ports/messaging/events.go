package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProblemDayEvent is the JSON payload sent via SQS for the alert queue when a
// rebuilt day lands on status problem (missing exit).
type ProblemDayEvent struct {
	EmployeeID   uuid.UUID  `json:"employeeId"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	Date         time.Time  `json:"date"`
	FirstEntry   *time.Time `json:"firstEntry,omitempty"`
	TotalSeconds int64      `json:"totalSeconds"`
	OccurredAt   time.Time  `json:"occurredAt"`
	RetryCount   int        `json:"retryCount"`
}

// AuditTrailEvent is the JSON payload sent via SQS for the audit queue. The
// old and new values are opaque snapshots; the audit consumer owns their
// retention and interpretation.
type AuditTrailEvent struct {
	EmployeeID  uuid.UUID       `json:"employeeId"`
	Date        time.Time       `json:"date"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	OldValue    json.RawMessage `json:"oldValue,omitempty"`
	NewValue    json.RawMessage `json:"newValue,omitempty"`
	ChangedAt   time.Time       `json:"changedAt"`
}
