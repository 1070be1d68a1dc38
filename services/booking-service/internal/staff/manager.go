// Package staff handles removing an employee: it reports services nobody else
// could perform, demotes the employee's upcoming appointments to pending,
// notifies the affected clients and finally deletes the employee.
package staff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

// ServiceStaffing is one service the employee performs, with the number of
// other active employees assigned to it.
type ServiceStaffing struct {
	Service          model.Service
	OtherActiveStaff int
}

type AffectedAppointment struct {
	Appointment model.Appointment
	Client      model.Client
}

type Repository interface {
	GetBusiness(ctx context.Context, businessID string) (model.Business, error)
	GetEmployee(ctx context.Context, employeeID string) (model.Employee, error)
	ServiceStaffing(ctx context.Context, employeeID string) ([]ServiceStaffing, error)
	DeleteEmployee(ctx context.Context, employeeID string) error
}

// AppointmentLookup lists the employee's appointments from the given date on,
// with client contact details.
type AppointmentLookup interface {
	ListAffectedAppointments(ctx context.Context, employeeID string, from time.Time) ([]AffectedAppointment, error)
	DemoteToPending(ctx context.Context, appointmentID string) error
}

type Manager struct {
	repo   Repository
	appts  AppointmentLookup
	queue  NotificationQueue
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(repo Repository, appts AppointmentLookup, queue NotificationQueue, logger *slog.Logger) *Manager {
	return &Manager{repo: repo, appts: appts, queue: queue, logger: logger, now: time.Now}
}

type Preparation struct {
	EmployeeID       string          `json:"employee_id"`
	EmployeeName     string          `json:"employee_name"`
	OrphanedServices []model.Service `json:"orphaned_services"`
}

type NotificationFailure struct {
	AppointmentID string `json:"appointment_id"`
	Error         string `json:"error"`
}

type Summary struct {
	EmployeeID          string                `json:"employee_id"`
	OrphanedServices    []model.Service       `json:"orphaned_services"`
	AffectedCount       int                   `json:"affected_count"`
	NotifiedCount       int                   `json:"notified_count"`
	FailedNotifications int                   `json:"failed_notifications"`
	Failures            []NotificationFailure `json:"failures,omitempty"`
	Degraded            bool                  `json:"degraded"`
	Deleted             bool                  `json:"deleted"`
	Warnings            []string              `json:"warnings,omitempty"`
}

// PrepareRemoval only reads: it reports the services that would be left with
// no active employee.
func (m *Manager) PrepareRemoval(ctx context.Context, employeeID string) (Preparation, error) {
	emp, err := m.employee(ctx, "staff.PrepareRemoval", employeeID)
	if err != nil {
		return Preparation{}, err
	}
	orphaned, err := m.orphaned(ctx, employeeID)
	if err != nil {
		return Preparation{}, err
	}
	return Preparation{EmployeeID: emp.ID, EmployeeName: emp.Name, OrphanedServices: orphaned}, nil
}

// CommitRemoval runs the cascade. A failed employee delete is returned as is
// together with whatever was already done; notification failures or a
// degraded appointment lookup come back as a PartialFailure alongside a
// complete summary.
func (m *Manager) CommitRemoval(ctx context.Context, employeeID, reason string) (Summary, error) {
	const op = "staff.CommitRemoval"
	emp, err := m.employee(ctx, op, employeeID)
	if err != nil {
		return Summary{}, err
	}
	orphaned, err := m.orphaned(ctx, employeeID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{EmployeeID: emp.ID, OrphanedServices: orphaned}
	if reason == "" {
		reason = "The staff member assigned to your appointment is no longer available."
	}

	msgs := m.demote(ctx, emp, reason, &sum)

	if len(msgs) > 0 {
		res := m.queue.Enqueue(ctx, msgs)
		sum.NotifiedCount = len(res.Succeeded)
		sum.FailedNotifications = len(res.Failed)
		for _, f := range res.Failed {
			m.logger.Warn("employee removal notification failed", "err", f.Err, "appointment_id", f.AppointmentID, "employee_id", emp.ID)
			sum.Failures = append(sum.Failures, NotificationFailure{AppointmentID: f.AppointmentID, Error: f.Err.Error()})
		}
	}

	if err := m.repo.DeleteEmployee(ctx, emp.ID); err != nil {
		m.logger.Error("employee delete failed after cascade", "err", err, "employee_id", emp.ID, "demoted", sum.AffectedCount)
		if errors.Is(err, apperr.ErrNotFound) {
			return sum, apperr.NotFound(op, "employee")
		}
		return sum, fmt.Errorf("%s: delete employee: %w", op, err)
	}
	sum.Deleted = true

	m.logger.Info("employee removed",
		"employee_id", emp.ID,
		"orphaned_services", len(sum.OrphanedServices),
		"affected", sum.AffectedCount,
		"notified", sum.NotifiedCount,
		"failed_notifications", sum.FailedNotifications,
		"degraded", sum.Degraded,
	)

	if sum.FailedNotifications > 0 || sum.Degraded {
		return sum, apperr.PartialFailure(op, "employee removed with %d failed notifications (degraded=%t)", sum.FailedNotifications, sum.Degraded)
	}
	return sum, nil
}

// demote moves every upcoming pending/confirmed appointment to pending and
// returns the notifications for those whose client can be reached.
func (m *Manager) demote(ctx context.Context, emp model.Employee, reason string, sum *Summary) []Message {
	now := m.now()
	loc := time.UTC
	if biz, err := m.repo.GetBusiness(ctx, emp.BusinessID); err == nil {
		if l, err := biz.Location(); err == nil {
			loc = l
		}
	}

	// One day back so the timezone filter below sees today's appointments.
	from := model.DateOf(now.In(loc)).AddDate(0, 0, -1)
	affected, err := m.appts.ListAffectedAppointments(ctx, emp.ID, from)
	if err != nil {
		sum.Degraded = true
		sum.Warnings = append(sum.Warnings, "affected appointments could not be loaded; none were demoted or notified")
		m.logger.Warn("affected appointment lookup failed, continuing degraded", "err", err, "employee_id", emp.ID)
		return nil
	}

	var msgs []Message
	for _, aa := range affected {
		a := aa.Appointment
		if a.Status != model.StatusPending && a.Status != model.StatusConfirmed {
			continue
		}
		if a.StartsAt(loc).Before(now) {
			continue
		}
		if err := m.appts.DemoteToPending(ctx, a.ID); err != nil {
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("appointment %s could not be moved to pending", a.ID))
			m.logger.Warn("appointment demotion failed", "err", err, "appointment_id", a.ID, "employee_id", emp.ID)
			continue
		}
		sum.AffectedCount++
		if !aa.Client.HasContact() {
			continue
		}
		msgs = append(msgs, Message{
			EventID:       uuid.NewString(),
			Type:          MessageTypeEmployeeDeleted,
			AppointmentID: a.ID,
			BusinessID:    a.BusinessID,
			EmployeeID:    emp.ID,
			EmployeeName:  emp.Name,
			Reason:        reason,
			ClientName:    aa.Client.Name,
			ClientEmail:   aa.Client.Email,
			ClientPhone:   aa.Client.Phone,
			Date:          a.AppointmentDate.Format(model.DateLayout),
			StartTime:     a.StartTime,
		})
	}
	return msgs
}

func (m *Manager) employee(ctx context.Context, op, employeeID string) (model.Employee, error) {
	if employeeID == "" {
		return model.Employee{}, apperr.Validation(op, "employee_id is required")
	}
	emp, err := m.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.Employee{}, apperr.NotFound(op, "employee")
		}
		return model.Employee{}, fmt.Errorf("%s: load employee: %w", op, err)
	}
	return emp, nil
}

func (m *Manager) orphaned(ctx context.Context, employeeID string) ([]model.Service, error) {
	staffing, err := m.repo.ServiceStaffing(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("staff: service staffing: %w", err)
	}
	out := []model.Service{}
	for _, s := range staffing {
		if s.OtherActiveStaff == 0 {
			out = append(out, s.Service)
		}
	}
	return out, nil
}
