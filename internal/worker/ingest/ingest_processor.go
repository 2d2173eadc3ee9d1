package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DeviceEventMessage is the JSON body the device-ingestion collaborator puts
// on the ingest queue, one message per badge swipe.
type DeviceEventMessage struct {
	DeviceID   string    `json:"deviceId"`
	CardNumber string    `json:"cardNumber"`
	EventType  string    `json:"eventType"`
	EventTime  time.Time `json:"eventTime"`
	RawData    string    `json:"rawData,omitempty"`
}

// EventProcessor handles messages from the ingest queue: it stores the raw
// event and, when the badge resolves to an employee, reprocesses that
// employee's day.
type EventProcessor struct {
	repo       repository.Repository
	normalizer *core.Normalizer
	days       *core.Processor
}

// NewProcessor sets up a new processor for handling raw device events.
func NewProcessor(repo repository.Repository, normalizer *core.Normalizer, days *core.Processor) *EventProcessor {
	return &EventProcessor{
		repo:       repo,
		normalizer: normalizer,
		days:       days,
	}
}

// Process is the main entry point for handling a message from the ingest
// queue. Unmatched badges are stored and acknowledged; transient storage or
// rebuild failures are retried.
func (p *EventProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var body DeviceEventMessage
	if err := json.Unmarshal([]byte(*msg.Body), &body); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal device event")
		return false, 0, err // Do not retry on malformed message
	}

	ev := model.RawAccessEvent{
		ID:         eventID(body),
		DeviceID:   body.DeviceID,
		CardNumber: body.CardNumber,
		EventType:  model.EventKind(body.EventType),
		EventTime:  body.EventTime.UTC(),
		RawData:    body.RawData,
	}

	normalized, err := p.normalizer.Normalize(ctx, ev)
	if err != nil {
		return true, 10, fmt.Errorf("failed to resolve badge token: %w", err)
	}
	if normalized.Employee != nil {
		id := normalized.Employee.ID
		ev.EmployeeID = &id
	}

	if err := p.repo.InsertEvent(ctx, &ev); err != nil {
		return true, 10, fmt.Errorf("failed to store raw event: %w", err)
	}

	if ev.EmployeeID == nil {
		// Stored for the record; nothing to rebuild without an owner.
		return false, 0, nil
	}

	if ok := p.days.ProcessDay(ctx, *ev.EmployeeID, model.DateOf(ev.EventTime)); !ok {
		return true, 30, fmt.Errorf("day rebuild failed for employee %s", ev.EmployeeID)
	}

	return false, 0, nil
}

// eventID derives a stable ID from the swipe's identity. SQS delivers at
// least once; a redelivered message maps to the same row instead of a
// duplicate insert.
func eventID(body DeviceEventMessage) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%s|%s", body.DeviceID, body.CardNumber, body.EventType, body.EventTime.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}
