package staff

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
)

const (
	MessageTypeEmployeeDeleted = "employee_deleted"
	EventEmployeeDeleted       = "booking.appointment.employee_deleted.v1"
)

// Message tells a client their appointment lost its employee. Consumers must
// be idempotent per appointment: delivery is at-least-once.
type Message struct {
	EventID       string      `json:"event_id"`
	Type          string      `json:"type"`
	AppointmentID string      `json:"appointment_id"`
	BusinessID    string      `json:"business_id"`
	EmployeeID    string      `json:"employee_id"`
	EmployeeName  string      `json:"employee_name"`
	Reason        string      `json:"reason"`
	ClientName    string      `json:"client_name,omitempty"`
	ClientEmail   string      `json:"client_email,omitempty"`
	ClientPhone   string      `json:"client_phone,omitempty"`
	Date          string      `json:"appointment_date"`
	StartTime     model.Clock `json:"start_time"`
}

type EnqueueFailure struct {
	AppointmentID string
	Err           error
}

type EnqueueResult struct {
	Succeeded []string
	Failed    []EnqueueFailure
}

// NotificationQueue accepts messages independently: one failure never stops
// the rest.
type NotificationQueue interface {
	Enqueue(ctx context.Context, msgs []Message) EnqueueResult
}

type EventAppender interface {
	Append(ctx context.Context, evt outbox.Event) error
}

// OutboxQueue writes each message as its own outbox row; the outbox
// publisher delivers them to the broker.
type OutboxQueue struct {
	events EventAppender
}

func NewOutboxQueue(events EventAppender) *OutboxQueue {
	return &OutboxQueue{events: events}
}

func (q *OutboxQueue) Enqueue(ctx context.Context, msgs []Message) EnqueueResult {
	var res EnqueueResult
	for _, m := range msgs {
		if err := q.enqueue(ctx, m); err != nil {
			res.Failed = append(res.Failed, EnqueueFailure{AppointmentID: m.AppointmentID, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, m.AppointmentID)
	}
	return res
}

func (q *OutboxQueue) enqueue(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return q.events.Append(ctx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   m.AppointmentID,
		EventType:     EventEmployeeDeleted,
		Payload:       payload,
	})
}
