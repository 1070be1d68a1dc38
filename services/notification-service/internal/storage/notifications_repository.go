package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/salonbook/libs/db"
)

// Notification is one delivery attempt on one channel.
type Notification struct {
	ID            int64           `json:"id"`
	AppointmentID string          `json:"appointment_id"`
	BusinessID    string          `json:"business_id,omitempty"`
	EmployeeID    string          `json:"employee_id,omitempty"`
	Type          string          `json:"type"`
	Channel       string          `json:"channel"`
	Recipient     string          `json:"recipient"`
	Payload       any             `json:"-"`
	RawPayload    json.RawMessage `json:"payload,omitempty"`
	Status        string          `json:"status"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, business_id, employee_id, type, channel, recipient, payload, status, error)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, NULLIF($9, ''))
	`, n.AppointmentID, n.BusinessID, n.EmployeeID, n.Type, n.Channel, n.Recipient, payload, n.Status, n.Error)
	return err
}

// ListByAppointment returns every attempt for appointmentID, oldest first.
func (r *Repository) ListByAppointment(ctx context.Context, appointmentID string) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id::text, COALESCE(business_id::text, ''), COALESCE(employee_id::text, ''),
			type, channel, recipient, payload, status, COALESCE(error, ''), created_at
		FROM notifications
		WHERE appointment_id = $1::uuid
		ORDER BY id
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		err := row.Scan(&n.ID, &n.AppointmentID, &n.BusinessID, &n.EmployeeID,
			&n.Type, &n.Channel, &n.Recipient, &n.RawPayload, &n.Status, &n.Error, &n.CreatedAt)
		return n, err
	})
}
