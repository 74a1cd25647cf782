package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "technician-dispatch/internal/common/errors"
	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/common/metrics"
	"technician-dispatch/internal/dispatch"
	"technician-dispatch/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

const insertNotificationQuery = `INSERT INTO notifications (id, recipient_id, title, message, type, entity_type, entity_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	InAppEnabled bool
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
}

// Notifier delivers job alerts in-app, by email and by SMS. A technician
// without a profile can only be reached in-app.
type Notifier struct {
	config Config
	db     *sql.DB
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewNotifier(cfg Config, db *sql.DB, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		db:     db,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (n *Notifier) Notify(ctx context.Context, contact models.TechnicianContact, alert dispatch.JobAlert) ([]dispatch.ChannelResult, error) {
	tmpl, err := templateFor(models.NotificationTypeJobAssigned)
	if err != nil {
		return nil, err
	}
	data := alertData(alert)

	results := []dispatch.ChannelResult{
		n.deliver(ctx, ChannelInApp, n.config.InAppEnabled, func() error {
			return n.sendInApp(ctx, contact, alert, render(tmpl.Title, data), render(tmpl.Body, data))
		}),
		n.deliver(ctx, ChannelEmail, n.config.EmailEnabled && contact.HasProfile && contact.Email != "", func() error {
			return n.sendEmail(ctx, contact.Email, render(tmpl.Subject, data), render(tmpl.Body, data), render(tmpl.HTMLBody, data))
		}),
		n.deliver(ctx, ChannelSMS, n.config.SMSEnabled && contact.HasProfile && contact.Phone != "", func() error {
			return n.sendSMS(ctx, contact.Phone, render(tmpl.SMS, data))
		}),
	}

	var (
		attempted int
		failures  []string
	)
	for _, r := range results {
		switch r.Status {
		case dispatch.NotificationSent:
			attempted++
		case dispatch.NotificationFailed:
			attempted++
			failures = append(failures, r.Channel+": "+r.Error)
		}
	}
	if attempted > 0 && len(failures) == attempted {
		return results, fmt.Errorf("%w: %s", ErrNotificationSendFailed, strings.Join(failures, "; "))
	}
	return results, nil
}

func (n *Notifier) deliver(ctx context.Context, channel string, enabled bool, send func() error) dispatch.ChannelResult {
	res := dispatch.ChannelResult{Channel: channel}
	switch {
	case !enabled:
		res.Status = dispatch.NotificationSkipped
	case ctx.Err() != nil:
		res.Status = dispatch.NotificationFailed
		res.Error = ctx.Err().Error()
	default:
		if err := send(); err != nil {
			res.Status = dispatch.NotificationFailed
			res.Error = err.Error()
			stdErr := apperrors.NewNotificationSendFailedError(channel, err)
			n.logger.Warn("channel delivery failed", map[string]interface{}{
				"channel":   channel,
				"errorCode": string(stdErr.Code),
				"details":   stdErr.Details,
			})
		} else {
			res.Status = dispatch.NotificationSent
		}
	}
	metrics.NotificationsSent.WithLabelValues(channel, res.Status).Inc()
	return res
}

func (n *Notifier) sendInApp(ctx context.Context, contact models.TechnicianContact, alert dispatch.JobAlert, title, message string) error {
	if n.db == nil {
		return errors.New("notification store not configured")
	}
	row := models.Notification{
		ID:          uuid.NewString(),
		RecipientID: contact.RecipientID(),
		Title:       title,
		Message:     message,
		Type:        models.NotificationTypeJobAssigned,
		EntityType:  models.EntityTypeMaintenanceRequest,
		EntityID:    alert.RequestID,
	}
	_, err := n.db.ExecContext(ctx, insertNotificationQuery,
		row.ID, row.RecipientID, row.Title, row.Message, row.Type, row.EntityType, row.EntityID,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, text, html string) error {
	if n.ses == nil {
		return errors.New("email client not configured")
	}
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(text)},
				Html: &sestypes.Content{Data: aws.String(html)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, phone, message string) error {
	if n.sns == nil {
		return errors.New("sms client not configured")
	}
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	}
	if n.config.SMSSenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.config.SMSSenderID),
			},
		}
	}
	_, err := n.sns.Publish(ctx, input)
	return err
}

func alertData(alert dispatch.JobAlert) map[string]string {
	title := alert.RequestTitle
	if title == "" {
		title = alert.ServiceType
	}
	if title == "" {
		title = "Maintenance request"
	}
	return map[string]string{
		"request_id":    alert.RequestID,
		"request_title": title,
		"job_type":      alert.ServiceType,
		"distance":      fmt.Sprintf("%.1f", alert.DistanceKm),
	}
}
