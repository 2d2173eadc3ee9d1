package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

// AuditPublisher adapts the queue producer to the coordinator's audit hook.
// Each recorded entry becomes one message on the audit queue; the external
// audit-trail service decides what to keep.
type AuditPublisher struct {
	producer QueueProducer
}

func NewAuditPublisher(p QueueProducer) *AuditPublisher {
	return &AuditPublisher{producer: p}
}

func (a *AuditPublisher) Record(ctx context.Context, entry core.AuditEntry) error {
	oldValue, err := json.Marshal(entry.Before)
	if err != nil {
		return fmt.Errorf("marshal before state: %w", err)
	}
	newValue, err := json.Marshal(entry.After)
	if err != nil {
		return fmt.Errorf("marshal after state: %w", err)
	}

	return a.producer.PublishAudit(ctx, AuditTrailEvent{
		EmployeeID:  entry.EmployeeID,
		Date:        entry.Date,
		Action:      string(entry.Action),
		Description: entry.Description,
		OldValue:    oldValue,
		NewValue:    newValue,
		ChangedAt:   entry.ChangedAt,
	})
}

// AlertPublisher adapts the queue producer to the coordinator's problem-day
// notifier. The notify worker picks these up and emails the employee.
type AlertPublisher struct {
	producer QueueProducer
}

func NewAlertPublisher(p QueueProducer) *AlertPublisher {
	return &AlertPublisher{producer: p}
}

func (a *AlertPublisher) NotifyProblemDay(ctx context.Context, employee model.Employee, summary model.DaySummary) error {
	return a.producer.PublishAlert(ctx, ProblemDayEvent{
		EmployeeID:   employee.ID,
		FullName:     employee.FullName,
		Email:        employee.Email,
		Date:         summary.Date,
		FirstEntry:   summary.FirstEntry,
		TotalSeconds: summary.TotalSecondsInOffice,
		OccurredAt:   time.Now().UTC(),
	})
}
