package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/storage"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Inbox interface {
	Record(ctx context.Context, key, eventType string) (bool, error)
	Release(ctx context.Context, key string) error
}

type NotificationStore interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Processor struct {
	inbox  Inbox
	store  NotificationStore
	email  email.Sender
	sms    sms.Sender
	logger *slog.Logger
}

func NewProcessor(inbox Inbox, store NotificationStore, emailSender email.Sender, smsSender sms.Sender, logger *slog.Logger) *Processor {
	return &Processor{inbox: inbox, store: store, email: emailSender, sms: smsSender, logger: logger}
}

// Handle is the consumer callback. Malformed and duplicate messages are
// dropped with a log line; only storage failures ask for redelivery. Each
// channel holds its own inbox claim, so a redelivery after a partial failure
// only retries the channels that were not recorded.
func (p *Processor) Handle(ctx context.Context, eventType string, raw []byte) error {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		p.logger.Error("invalid notification payload", "err", err, "event_type", eventType)
		return nil
	}
	if err := msg.validate(); err != nil {
		p.logger.Error("notification payload rejected", "err", err, "event_type", eventType, "appointment_id", msg.AppointmentID)
		return nil
	}
	if msg.ClientEmail == "" && msg.ClientPhone == "" {
		p.logger.Warn("client has no contact details", "appointment_id", msg.AppointmentID)
		return nil
	}

	var errs []error
	if msg.ClientEmail != "" {
		errs = append(errs, p.deliver(ctx, msg, "email", msg.ClientEmail, func() error {
			return p.email.Send(ctx, msg.ClientEmail, emailSubject, body(msg))
		}))
	}
	if msg.ClientPhone != "" {
		errs = append(errs, p.deliver(ctx, msg, "sms", msg.ClientPhone, func() error {
			return p.sms.Send(ctx, msg.ClientPhone, smsBody(msg))
		}))
	}
	return errors.Join(errs...)
}

// deliver claims the channel's key, sends and records the outcome. The claim
// is released only when the outcome could not be recorded.
func (p *Processor) deliver(ctx context.Context, msg Message, channel, recipient string, send func() error) error {
	key := msg.DedupeKey() + ":" + channel
	fresh, err := p.inbox.Record(ctx, key, msg.Type)
	if err != nil {
		return fmt.Errorf("inbox record: %w", err)
	}
	if !fresh {
		p.logger.Info("duplicate notification ignored", "key", key)
		return nil
	}

	if err := p.persist(ctx, msg, channel, recipient, send()); err != nil {
		if relErr := p.inbox.Release(ctx, key); relErr != nil {
			p.logger.Error("inbox release failed", "err", relErr, "key", key)
		}
		return err
	}
	return nil
}

func (p *Processor) persist(ctx context.Context, msg Message, channel, recipient string, sendErr error) error {
	n := storage.Notification{
		AppointmentID: msg.AppointmentID,
		BusinessID:    msg.BusinessID,
		EmployeeID:    msg.EmployeeID,
		Type:          msg.Type,
		Channel:       channel,
		Recipient:     recipient,
		Payload:       msg,
		Status:        StatusSent,
	}
	if sendErr != nil {
		n.Status = StatusFailed
		n.Error = sendErr.Error()
		p.logger.Error("notification send failed", "err", sendErr, "channel", channel, "appointment_id", msg.AppointmentID)
	}
	if err := p.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("persist %s notification: %w", channel, err)
	}
	p.logger.Info("notification processed", "appointment_id", msg.AppointmentID, "channel", channel, "status", n.Status)
	return nil
}
