package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

const (
	EventRescheduled = "booking.appointment.rescheduled.v1"
	EventCancelled   = "booking.appointment.cancelled.v1"
	EventStatus      = "booking.appointment.status_changed.v1"
)

type Repository interface {
	GetBusiness(ctx context.Context, businessID string) (model.Business, error)
	GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error)
	ApplyChange(ctx context.Context, change model.AppointmentChange) (model.Appointment, error)
	CancelAppointment(ctx context.Context, appointmentID, note string, at time.Time) (model.Appointment, error)
	UpdateStatus(ctx context.Context, appointmentID string, from, to model.Status) (model.Appointment, error)
	CreateReview(ctx context.Context, review model.Review) (model.Review, error)
}

type SlotChecker interface {
	IsFree(ctx context.Context, q availability.Query, start model.Clock) (bool, error)
}

type Service struct {
	repo   Repository
	slots  SlotChecker
	step   int
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, slots SlotChecker, stepMinutes int, logger *slog.Logger) *Service {
	return &Service{repo: repo, slots: slots, step: stepMinutes, logger: logger, now: time.Now}
}

type CancelRequest struct {
	AppointmentID string
	ClientID      string
	Note          string
}

func (s *Service) Cancel(ctx context.Context, req CancelRequest) (model.Appointment, error) {
	const op = "lifecycle.Cancel"
	appt, loc, err := s.loadOwned(ctx, op, req.AppointmentID, req.ClientID)
	if err != nil {
		return model.Appointment{}, err
	}
	now := s.now()
	if err := CanCancel(appt, loc, now); err != nil {
		return model.Appointment{}, err
	}
	out, err := s.repo.CancelAppointment(ctx, appt.ID, strings.TrimSpace(req.Note), now.UTC())
	if err != nil {
		return model.Appointment{}, err
	}
	s.logger.Info("appointment cancelled", "appointment_id", appt.ID, "client_id", req.ClientID)
	return out, nil
}

type RescheduleRequest struct {
	AppointmentID string
	ClientID      string
	Date          time.Time
	StartTime     model.Clock
}

// Reschedule keeps employee, services and price; it moves the slot and resets
// the status to pending so the business confirms again.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) (model.Appointment, error) {
	const op = "lifecycle.Reschedule"
	appt, loc, err := s.loadOwned(ctx, op, req.AppointmentID, req.ClientID)
	if err != nil {
		return model.Appointment{}, err
	}
	now := s.now()
	if err := CanReschedule(appt, loc, now); err != nil {
		return model.Appointment{}, err
	}
	if appt.EmployeeID == "" {
		return model.Appointment{}, apperr.Validation(op, "appointment has no employee assigned")
	}
	if req.Date.IsZero() || !req.StartTime.Valid() {
		return model.Appointment{}, apperr.Validation(op, "date and a valid start time are required")
	}

	duration := int(appt.EndTime - appt.StartTime)
	q := availability.Query{
		BusinessID:           appt.BusinessID,
		EmployeeID:           appt.EmployeeID,
		Date:                 model.DateOf(req.Date),
		DurationMinutes:      duration,
		StepMinutes:          s.step,
		Now:                  now,
		ExcludeAppointmentID: appt.ID,
	}
	free, err := s.slots.IsFree(ctx, q, req.StartTime)
	if err != nil {
		return model.Appointment{}, err
	}
	if !free {
		return model.Appointment{}, apperr.Conflict(op, "slot %s %s is no longer available", q.Date.Format(model.DateLayout), req.StartTime)
	}

	out, err := s.repo.ApplyChange(ctx, model.AppointmentChange{
		AppointmentID:   appt.ID,
		EmployeeID:      appt.EmployeeID,
		Date:            q.Date,
		StartTime:       req.StartTime,
		EndTime:         req.StartTime.Add(duration),
		TotalPriceCents: appt.TotalPriceCents,
		EventType:       EventRescheduled,
	})
	if err != nil {
		return model.Appointment{}, err
	}
	s.logger.Info("appointment rescheduled", "appointment_id", appt.ID, "date", q.Date.Format(model.DateLayout), "start", req.StartTime.String())
	return out, nil
}

type ReviewRequest struct {
	AppointmentID string
	ClientID      string
	Rating        int
	Comment       string
}

func (s *Service) Review(ctx context.Context, req ReviewRequest) (model.Review, error) {
	const op = "lifecycle.Review"
	if req.Rating < 1 || req.Rating > 5 {
		return model.Review{}, apperr.Validation(op, "rating must be between 1 and 5")
	}
	appt, _, err := s.loadOwned(ctx, op, req.AppointmentID, req.ClientID)
	if err != nil {
		return model.Review{}, err
	}
	if err := CanReview(appt); err != nil {
		return model.Review{}, err
	}
	return s.repo.CreateReview(ctx, model.Review{
		AppointmentID: appt.ID,
		ClientID:      req.ClientID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
	})
}

type TransitionRequest struct {
	AppointmentID string
	BusinessID    string
	To            model.Status
}

// Transition applies a business-side status move (confirm, start, complete, no-show, cancel).
func (s *Service) Transition(ctx context.Context, req TransitionRequest) (model.Appointment, error) {
	const op = "lifecycle.Transition"
	appt, err := s.repo.GetAppointment(ctx, req.AppointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	if req.BusinessID != "" && appt.BusinessID != req.BusinessID {
		return model.Appointment{}, apperr.NotFound(op, "appointment")
	}
	if err := ValidateBusinessTransition(appt.Status, req.To); err != nil {
		return model.Appointment{}, err
	}
	if req.To == model.StatusCancelled {
		return s.repo.CancelAppointment(ctx, appt.ID, "cancelled by business", s.now().UTC())
	}
	return s.repo.UpdateStatus(ctx, appt.ID, appt.Status, req.To)
}

func (s *Service) loadOwned(ctx context.Context, op, appointmentID, clientID string) (model.Appointment, *time.Location, error) {
	if appointmentID == "" || clientID == "" {
		return model.Appointment{}, nil, apperr.Validation(op, "appointment_id and client_id are required")
	}
	appt, err := s.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, nil, err
	}
	// Another client's appointment is reported as missing.
	if appt.ClientID != clientID {
		return model.Appointment{}, nil, apperr.NotFound(op, "appointment")
	}
	biz, err := s.repo.GetBusiness(ctx, appt.BusinessID)
	if err != nil {
		return model.Appointment{}, nil, err
	}
	loc, err := biz.Location()
	if err != nil {
		return model.Appointment{}, nil, fmt.Errorf("%s: business timezone: %w", op, err)
	}
	return appt, loc, nil
}
