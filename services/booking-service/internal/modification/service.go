package modification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

const EventModified = "booking.appointment.modified.v1"

type Repository interface {
	GetBusiness(ctx context.Context, businessID string) (model.Business, error)
	GetAppointment(ctx context.Context, appointmentID string) (model.Appointment, error)
	ListAppointmentServices(ctx context.Context, appointmentID string) ([]model.AppointmentService, error)
	GetEmployee(ctx context.Context, employeeID string) (model.Employee, error)
	EmployeeServiceIDs(ctx context.Context, employeeID string) ([]string, error)
	GetServices(ctx context.Context, businessID string, serviceIDs []string) ([]model.Service, error)
	ApplyChange(ctx context.Context, change model.AppointmentChange) (model.Appointment, error)
}

type SlotChecker interface {
	IsFree(ctx context.Context, q availability.Query, start model.Clock) (bool, error)
}

// SessionStore keeps wizard state between requests. Load returns an
// apperr NotFound when the session is unknown or expired.
type SessionStore interface {
	Save(ctx context.Context, id string, v any) error
	Load(ctx context.Context, id string, v any) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo     Repository
	slots    SlotChecker
	sessions SessionStore
	step     int
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, slots SlotChecker, sessions SessionStore, stepMinutes int, logger *slog.Logger) *Service {
	return &Service{repo: repo, slots: slots, sessions: sessions, step: stepMinutes, logger: logger, now: time.Now}
}

// Session is what callers see after every wizard call.
type Session struct {
	ID    string `json:"session_id"`
	State State  `json:"state"`
}

// Start opens a wizard on an appointment the client owns, pre-filled with the
// current services, employee and slot.
func (s *Service) Start(ctx context.Context, appointmentID, clientID string) (Session, error) {
	const op = "modification.Start"
	if appointmentID == "" || clientID == "" {
		return Session{}, apperr.Validation(op, "appointment_id and client_id are required")
	}
	appt, err := s.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Session{}, err
	}
	if appt.ClientID != clientID {
		return Session{}, apperr.NotFound(op, "appointment")
	}
	if err := s.gate(ctx, appt); err != nil {
		return Session{}, err
	}
	booked, err := s.repo.ListAppointmentServices(ctx, appt.ID)
	if err != nil {
		return Session{}, err
	}
	original := make([]string, 0, len(booked))
	for _, b := range booked {
		original = append(original, b.ServiceID)
	}

	sess := Session{
		ID: uuid.NewString(),
		State: State{
			Step:          StepSelectServices,
			AppointmentID: appt.ID,
			BusinessID:    appt.BusinessID,
			ClientID:      clientID,
			Original:      original,
			Services:      append([]string{}, original...),
			EmployeeID:    appt.EmployeeID,
			Date:          appt.AppointmentDate,
			StartTime:     appt.StartTime,
			SlotChosen:    true,
		},
	}
	if err := s.sessions.Save(ctx, sess.ID, sess.State); err != nil {
		return Session{}, fmt.Errorf("%s: save session: %w", op, err)
	}
	return sess, nil
}

// Next validates in against the store for the current step and advances.
func (s *Service) Next(ctx context.Context, sessionID, clientID string, in Input) (Session, error) {
	const op = "modification.Next"
	st, err := s.load(ctx, sessionID, clientID)
	if err != nil {
		return Session{}, err
	}
	next, err := Advance(st, in)
	if err != nil {
		return Session{}, err
	}

	switch st.Step {
	case StepSelectServices:
		if _, _, err := s.loadServices(ctx, next); err != nil {
			return Session{}, err
		}
	case StepSelectEmployee:
		if err := s.checkEmployee(ctx, op, next); err != nil {
			return Session{}, err
		}
	case StepSelectDateTime:
		duration, _, err := s.loadServices(ctx, next)
		if err != nil {
			return Session{}, err
		}
		if err := s.checkSlot(ctx, op, next, duration); err != nil {
			return Session{}, err
		}
	}

	if err := s.sessions.Save(ctx, sessionID, next); err != nil {
		return Session{}, fmt.Errorf("%s: save session: %w", op, err)
	}
	return Session{ID: sessionID, State: next}, nil
}

func (s *Service) Back(ctx context.Context, sessionID, clientID string) (Session, error) {
	st, err := s.load(ctx, sessionID, clientID)
	if err != nil {
		return Session{}, err
	}
	prev, err := Back(st)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.Save(ctx, sessionID, prev); err != nil {
		return Session{}, fmt.Errorf("modification.Back: save session: %w", err)
	}
	return Session{ID: sessionID, State: prev}, nil
}

// Confirm recomputes totals over the final service set, re-checks the slot
// and persists. A slot that is no longer free sends the wizard back to
// date/time selection with a retryable ConflictError.
func (s *Service) Confirm(ctx context.Context, sessionID, clientID string) (model.Appointment, error) {
	const op = "modification.Confirm"
	st, err := s.load(ctx, sessionID, clientID)
	if err != nil {
		return model.Appointment{}, err
	}
	if st.Step != StepConfirm {
		return model.Appointment{}, apperr.Validation(op, "wizard is at %s, not confirm", st.Step)
	}

	appt, err := s.repo.GetAppointment(ctx, st.AppointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.gate(ctx, appt); err != nil {
		return model.Appointment{}, err
	}

	duration, services, err := s.loadServices(ctx, st)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.checkEmployee(ctx, op, st); err != nil {
		return model.Appointment{}, err
	}
	booked, err := s.repo.ListAppointmentServices(ctx, appt.ID)
	if err != nil {
		return model.Appointment{}, err
	}
	total, added := price(appt.ID, services, booked)

	if err := s.checkSlot(ctx, op, st, duration); err != nil {
		return model.Appointment{}, s.rewind(ctx, sessionID, st, err)
	}

	out, err := s.repo.ApplyChange(ctx, model.AppointmentChange{
		AppointmentID:   appt.ID,
		EmployeeID:      st.EmployeeID,
		Date:            st.Date,
		StartTime:       st.StartTime,
		EndTime:         st.StartTime.Add(duration),
		TotalPriceCents: total,
		AddedServices:   added,
		EventType:       EventModified,
	})
	if err != nil {
		return model.Appointment{}, s.rewind(ctx, sessionID, st, err)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("modification session cleanup failed", "err", err, "session_id", sessionID)
	}
	s.logger.Info("appointment modified",
		"appointment_id", appt.ID,
		"employee_id", st.EmployeeID,
		"date", st.Date.Format(model.DateLayout),
		"start", st.StartTime.String(),
		"added_services", len(added),
	)
	return out, nil
}

// rewind returns the wizard to date/time selection when err is a conflict.
func (s *Service) rewind(ctx context.Context, sessionID string, st State, err error) error {
	if !errors.Is(err, apperr.ErrConflict) {
		return err
	}
	st.Step = StepSelectDateTime
	st.SlotChosen = false
	if saveErr := s.sessions.Save(ctx, sessionID, st); saveErr != nil {
		s.logger.Warn("modification session rewind failed", "err", saveErr, "session_id", sessionID)
	}
	return err
}

func (s *Service) load(ctx context.Context, sessionID, clientID string) (State, error) {
	const op = "modification.load"
	if sessionID == "" || clientID == "" {
		return State{}, apperr.Validation(op, "session_id and client_id are required")
	}
	var st State
	if err := s.sessions.Load(ctx, sessionID, &st); err != nil {
		return State{}, err
	}
	if st.ClientID != clientID {
		return State{}, apperr.NotFound(op, "session")
	}
	return st, nil
}

// gate applies the reschedule rule: only upcoming pending/confirmed appointments.
func (s *Service) gate(ctx context.Context, appt model.Appointment) error {
	biz, err := s.repo.GetBusiness(ctx, appt.BusinessID)
	if err != nil {
		return err
	}
	loc, err := biz.Location()
	if err != nil {
		return fmt.Errorf("modification: business timezone: %w", err)
	}
	return lifecycle.CanReschedule(appt, loc, s.now())
}

// loadServices returns the working set from the catalog with its total
// duration. Booked services stay usable even if since deactivated; additions
// must be active.
func (s *Service) loadServices(ctx context.Context, st State) (int, []model.Service, error) {
	const op = "modification.loadServices"
	if len(st.Services) == 0 {
		return 0, nil, apperr.Validation(op, "at least one service is required")
	}
	found, err := s.repo.GetServices(ctx, st.BusinessID, st.Services)
	if err != nil {
		return 0, nil, err
	}
	byID := make(map[string]model.Service, len(found))
	for _, svc := range found {
		byID[svc.ID] = svc
	}
	booked := make(map[string]struct{}, len(st.Original))
	for _, id := range st.Original {
		booked[id] = struct{}{}
	}

	duration := 0
	services := make([]model.Service, 0, len(st.Services))
	for _, id := range st.Services {
		svc, ok := byID[id]
		if !ok {
			return 0, nil, apperr.NotFound(op, "service "+id)
		}
		if _, wasBooked := booked[id]; !wasBooked && !svc.IsActive {
			return 0, nil, apperr.Validation(op, "service %s is not active", id)
		}
		duration += svc.DurationMinutes
		services = append(services, svc)
	}
	if duration <= 0 {
		return 0, nil, apperr.Validation(op, "total duration must be positive")
	}
	return duration, services, nil
}

func (s *Service) checkEmployee(ctx context.Context, op string, st State) error {
	emp, err := s.repo.GetEmployee(ctx, st.EmployeeID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound(op, "employee")
		}
		return err
	}
	if emp.BusinessID != st.BusinessID {
		return apperr.NotFound(op, "employee")
	}
	if !emp.IsActive {
		return apperr.Validation(op, "employee %s is not active", emp.ID)
	}
	offered, err := s.repo.EmployeeServiceIDs(ctx, emp.ID)
	if err != nil {
		return err
	}
	if missing := missingOriginal(st.Services, offered); len(missing) > 0 {
		return apperr.Validation(op, "employee %s does not offer services %v", emp.ID, missing)
	}
	return nil
}

func (s *Service) checkSlot(ctx context.Context, op string, st State, duration int) error {
	q := availability.Query{
		BusinessID:           st.BusinessID,
		EmployeeID:           st.EmployeeID,
		Date:                 st.Date,
		DurationMinutes:      duration,
		StepMinutes:          s.step,
		Now:                  s.now(),
		ExcludeAppointmentID: st.AppointmentID,
	}
	free, err := s.slots.IsFree(ctx, q, st.StartTime)
	if err != nil {
		return err
	}
	if !free {
		return apperr.Conflict(op, "slot %s %s is no longer available", st.Date.Format(model.DateLayout), st.StartTime)
	}
	return nil
}

// price sums the final service set. Services already on the booking keep the
// price they were booked at; additions take the current catalog price.
func price(appointmentID string, services []model.Service, booked []model.AppointmentService) (int64, []model.AppointmentService) {
	snapshot := make(map[string]int64, len(booked))
	for _, b := range booked {
		snapshot[b.ServiceID] = b.PriceCents
	}
	var total int64
	var added []model.AppointmentService
	for _, svc := range services {
		if p, ok := snapshot[svc.ID]; ok {
			total += p
			continue
		}
		total += svc.PriceCents
		added = append(added, model.AppointmentService{AppointmentID: appointmentID, ServiceID: svc.ID, PriceCents: svc.PriceCents})
	}
	return total, added
}
