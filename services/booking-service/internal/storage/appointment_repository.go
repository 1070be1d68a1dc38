package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/staff"
)

const appointmentColumns = `
	id::text, business_id::text, COALESCE(employee_id::text, ''), client_id::text,
	appointment_date, start_minute, end_minute, status, total_price_cents,
	COALESCE(cancellation_note, ''), cancelled_at, updated_at`

type AppointmentRepository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outboxRepo: outboxRepo}
}

func (r *AppointmentRepository) GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1::uuid`, appointmentID))
	if err != nil {
		return model.Appointment{}, notFound("storage.GetAppointment", "appointment", err)
	}
	return appt, nil
}

func (r *AppointmentRepository) ListAppointmentServices(ctx context.Context, appointmentID string) ([]model.AppointmentService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_id::text, service_id::text, price_cents
		FROM appointment_services
		WHERE appointment_id = $1::uuid
	`, appointmentID)
	if err != nil {
		return nil, translate("storage.ListAppointmentServices", err)
	}
	defer rows.Close()

	var out []model.AppointmentService
	for rows.Next() {
		var s model.AppointmentService
		if err := rows.Scan(&s.AppointmentID, &s.ServiceID, &s.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *AppointmentRepository) ListBlockingAppointments(ctx context.Context, employeeID string, date time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE employee_id = $1::uuid
			AND appointment_date = $2
			AND status NOT IN ('cancelled', 'no_show')
		ORDER BY start_minute ASC
	`, employeeID, date)
	if err != nil {
		return nil, translate("storage.ListBlockingAppointments", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ApplyChange moves an appointment under row locks: the appointment itself
// and any overlapping booking of the target employee. An overlap found here,
// or raised by the exclusion constraint, is a ConflictError.
func (r *AppointmentRepository) ApplyChange(ctx context.Context, c model.AppointmentChange) (model.Appointment, error) {
	const op = "storage.ApplyChange"
	var updated model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		current, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1::uuid FOR UPDATE`, c.AppointmentID))
		if err != nil {
			return notFound(op, "appointment", err)
		}
		if current.Status != model.StatusPending && current.Status != model.StatusConfirmed {
			return apperr.Conflict(op, "appointment is now %s", current.Status)
		}

		var clash string
		err = tx.QueryRow(ctx, `
			SELECT id::text
			FROM appointments
			WHERE employee_id = $1::uuid
				AND appointment_date = $2
				AND id <> $3::uuid
				AND status NOT IN ('cancelled', 'no_show')
				AND start_minute < $5
				AND end_minute > $4
			LIMIT 1
			FOR UPDATE
		`, c.EmployeeID, c.Date, c.AppointmentID, int(c.StartTime), int(c.EndTime)).Scan(&clash)
		if err == nil {
			return apperr.Conflict(op, "slot overlaps appointment %s", clash)
		}
		if !IsNotFound(err) {
			return err
		}

		updated, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET employee_id = $2::uuid,
				appointment_date = $3,
				start_minute = $4,
				end_minute = $5,
				total_price_cents = $6,
				status = 'pending',
				updated_at = now()
			WHERE id = $1::uuid
			RETURNING `+appointmentColumns,
			c.AppointmentID, c.EmployeeID, c.Date, int(c.StartTime), int(c.EndTime), c.TotalPriceCents))
		if err != nil {
			return err
		}

		added := make([]string, 0, len(c.AddedServices))
		for _, s := range c.AddedServices {
			if _, err := tx.Exec(ctx, `
				INSERT INTO appointment_services (appointment_id, service_id, price_cents)
				VALUES ($1::uuid, $2::uuid, $3)
				ON CONFLICT (appointment_id, service_id) DO NOTHING
			`, updated.ID, s.ServiceID, s.PriceCents); err != nil {
				return err
			}
			added = append(added, s.ServiceID)
		}

		if c.EventType == "" {
			return nil
		}
		payload := appointmentPayload(updated)
		payload["previous_employee_id"] = current.EmployeeID
		payload["previous_date"] = current.AppointmentDate.Format(model.DateLayout)
		payload["previous_start_time"] = current.StartTime.String()
		payload["added_service_ids"] = added
		return r.insertEvent(ctx, tx, c.EventType, updated.ID, payload)
	})
	if err != nil {
		return model.Appointment{}, translate(op, err)
	}
	return updated, nil
}

func (r *AppointmentRepository) CancelAppointment(ctx context.Context, appointmentID, note string, at time.Time) (model.Appointment, error) {
	const op = "storage.CancelAppointment"
	var appt model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		appt, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = 'cancelled',
				cancellation_note = NULLIF($2, ''),
				cancelled_at = $3,
				updated_at = now()
			WHERE id = $1::uuid AND status IN ('pending', 'confirmed')
			RETURNING `+appointmentColumns,
			appointmentID, note, at))
		if IsNotFound(err) {
			return apperr.Conflict(op, "appointment is no longer cancellable")
		}
		if err != nil {
			return err
		}

		payload := appointmentPayload(appt)
		payload["cancelled_at"] = at.UTC().Format(time.RFC3339)
		payload["reason"] = note
		return r.insertEvent(ctx, tx, "booking.appointment.cancelled.v1", appt.ID, payload)
	})
	if err != nil {
		return model.Appointment{}, translate(op, err)
	}
	return appt, nil
}

// UpdateStatus moves from -> to only if the row is still in from.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, appointmentID string, from, to model.Status) (model.Appointment, error) {
	const op = "storage.UpdateStatus"
	var appt model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		appt, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3, updated_at = now()
			WHERE id = $1::uuid AND status = $2
			RETURNING `+appointmentColumns,
			appointmentID, string(from), string(to)))
		if IsNotFound(err) {
			return apperr.Conflict(op, "appointment is no longer %s", from)
		}
		if err != nil {
			return err
		}

		payload := appointmentPayload(appt)
		payload["previous_status"] = string(from)
		return r.insertEvent(ctx, tx, "booking.appointment.status_changed.v1", appt.ID, payload)
	})
	if err != nil {
		return model.Appointment{}, translate(op, err)
	}
	return appt, nil
}

func (r *AppointmentRepository) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (appointment_id, client_id, rating, comment)
		VALUES ($1::uuid, $2::uuid, $3, $4)
		RETURNING created_at
	`, review.AppointmentID, review.ClientID, review.Rating, review.Comment).Scan(&review.CreatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return model.Review{}, apperr.Conflict("storage.CreateReview", "appointment already reviewed")
		}
		return model.Review{}, translate("storage.CreateReview", err)
	}
	return review, nil
}

func (r *AppointmentRepository) ListAffectedAppointments(ctx context.Context, employeeID string, from time.Time) ([]staff.AffectedAppointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id::text, a.business_id::text, COALESCE(a.employee_id::text, ''), a.client_id::text,
			a.appointment_date, a.start_minute, a.end_minute, a.status, a.total_price_cents,
			COALESCE(a.cancellation_note, ''), a.cancelled_at, a.updated_at,
			c.id::text, c.name, c.email, c.phone
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		WHERE a.employee_id = $1::uuid
			AND a.appointment_date >= $2
			AND a.status IN ('pending', 'confirmed')
		ORDER BY a.appointment_date, a.start_minute
	`, employeeID, from)
	if err != nil {
		return nil, translate("storage.ListAffectedAppointments", err)
	}
	defer rows.Close()

	var out []staff.AffectedAppointment
	for rows.Next() {
		var aa staff.AffectedAppointment
		var start, end int
		a := &aa.Appointment
		if err := rows.Scan(&a.ID, &a.BusinessID, &a.EmployeeID, &a.ClientID,
			&a.AppointmentDate, &start, &end, &a.Status, &a.TotalPriceCents,
			&a.CancellationNote, &a.CancelledAt, &a.UpdatedAt,
			&aa.Client.ID, &aa.Client.Name, &aa.Client.Email, &aa.Client.Phone); err != nil {
			return nil, err
		}
		a.StartTime, a.EndTime = model.Clock(start), model.Clock(end)
		out = append(out, aa)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *AppointmentRepository) DemoteToPending(ctx context.Context, appointmentID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'pending', updated_at = now()
		WHERE id = $1::uuid AND status IN ('pending', 'confirmed')
	`, appointmentID)
	if err != nil {
		return translate("storage.DemoteToPending", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("storage.DemoteToPending", "appointment %s is no longer pending or confirmed", appointmentID)
	}
	return nil
}

func (r *AppointmentRepository) insertEvent(ctx context.Context, tx pgx.Tx, eventType, appointmentID string, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appointmentID,
		EventType:     eventType,
		Payload:       b,
	})
}

func appointmentPayload(a model.Appointment) map[string]any {
	return map[string]any{
		"appointment_id":    a.ID,
		"business_id":       a.BusinessID,
		"employee_id":       a.EmployeeID,
		"client_id":         a.ClientID,
		"appointment_date":  a.AppointmentDate.Format(model.DateLayout),
		"start_time":        a.StartTime.String(),
		"end_time":          a.EndTime.String(),
		"status":            string(a.Status),
		"total_price_cents": a.TotalPriceCents,
	}
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var start, end int
	err := row.Scan(&a.ID, &a.BusinessID, &a.EmployeeID, &a.ClientID,
		&a.AppointmentDate, &start, &end, &a.Status, &a.TotalPriceCents,
		&a.CancellationNote, &a.CancelledAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	a.StartTime, a.EndTime = model.Clock(start), model.Clock(end)
	return a, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
