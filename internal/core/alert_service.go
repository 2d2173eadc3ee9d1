package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AlertService sends missing-exit notifications to employees.
type AlertService interface {
	SendMissingExitAlert(ctx context.Context, to string, date time.Time, firstEntry *time.Time) error
}

type SESAlertService struct {
	client *ses.Client
	sender string
}

func NewSESAlertService(client *ses.Client, sender string) *SESAlertService {
	return &SESAlertService{client: client, sender: sender}
}

func (s *SESAlertService) SendMissingExitAlert(ctx context.Context, to string, date time.Time, firstEntry *time.Time) error {
	tracer := otel.Tracer("ses-alert-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employeeId", empID))
	}

	bodyText := fmt.Sprintf(
		"Hello,\n\nOur attendance records for %s show an entry without a matching exit.",
		date.Format("2006-01-02"),
	)
	if firstEntry != nil {
		bodyText += fmt.Sprintf(" First recorded entry: %s.", firstEntry.Format("15:04"))
	}
	bodyText += "\n\nPlease contact HR if you believe this is an error."

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Attendance: missing exit on " + date.Format("2006-01-02")),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(bodyText),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
