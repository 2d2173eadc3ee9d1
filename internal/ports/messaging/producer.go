package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender        MessageSender
	auditQueueURL string
	alertQueueURL string
}

func NewProducer(sender MessageSender, auditQueueURL, alertQueueURL string) *Producer {
	return &Producer{
		sender:        sender,
		auditQueueURL: auditQueueURL,
		alertQueueURL: alertQueueURL,
	}
}

func NewSQSProducer(client SQSClient, auditQueueURL, alertQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, auditQueueURL, alertQueueURL)
}

func (p *Producer) PublishAudit(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.auditQueueURL, body)
}

func (p *Producer) PublishAlert(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.alertQueueURL, body)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with employee_id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			EmployeeID string `json:"employeeId"`
		}
		if err := json.Unmarshal(b, &payload); err == nil && payload.EmployeeID != "" {
			span.SetAttributes(attribute.String("app.employeeId", payload.EmployeeID))
		}
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
