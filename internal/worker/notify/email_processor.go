package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// EmailProcessor handles problem-day alerts from the alert queue.
type EmailProcessor struct {
	alertService core.AlertService
}

// NewProcessor sets up a new processor for handling alert jobs.
func NewProcessor(alertService core.AlertService) *EmailProcessor {
	return &EmailProcessor{alertService: alertService}
}

// Process tries to send one missing-exit email and tells the worker to retry
// with backoff if the mail service is struggling.
func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.ProblemDayEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal problem-day event")
		return false, 0, err // Do not retry on malformed message
	}

	if event.Email == "" {
		log.Ctx(ctx).Info().
			Str("employee_id", event.EmployeeID.String()).
			Msg("Employee has no email address, skipping alert")
		return false, 0, nil
	}

	if err := p.alertService.SendMissingExitAlert(ctx, event.Email, event.Date, event.FirstEntry); err != nil {
		delay := worker.Backoff(event.RetryCount + 1)
		return true, delay, fmt.Errorf("failed to send missing-exit alert: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("employee_id", event.EmployeeID.String()).
		Str("date", event.Date.Format("2006-01-02")).
		Msg("Missing-exit alert sent")
	return false, 0, nil
}
