package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type ServiceCatalog interface {
	GetServices(ctx context.Context, businessID string, serviceIDs []string) ([]model.Service, error)
}

type Repository interface {
	ServiceCatalog
	GetEmployee(ctx context.Context, employeeID string) (model.Employee, error)
	// ListBlockingAppointments returns the employee's appointments on date whose
	// status still occupies the slot (everything except cancelled and no_show).
	ListBlockingAppointments(ctx context.Context, employeeID string, date time.Time) ([]model.Appointment, error)
}

type HoursResolver interface {
	Resolve(ctx context.Context, businessID string, date time.Time) (hours.Window, error)
}

type Query struct {
	BusinessID      string
	EmployeeID      string
	Date            time.Time
	DurationMinutes int
	StepMinutes     int
	Now             time.Time
	// ExcludeAppointmentID drops one appointment from the conflict set, so an
	// appointment being edited does not collide with its own current slot.
	ExcludeAppointmentID string
}

func (q Query) validate(op string, needStep bool) error {
	if q.BusinessID == "" || q.EmployeeID == "" {
		return apperr.Validation(op, "business_id and employee_id are required")
	}
	if q.Date.IsZero() {
		return apperr.Validation(op, "date is required")
	}
	if q.DurationMinutes <= 0 {
		return apperr.Validation(op, "duration must be positive (got %d)", q.DurationMinutes)
	}
	if needStep && q.StepMinutes <= 0 {
		return apperr.Validation(op, "slot step must be positive (got %d)", q.StepMinutes)
	}
	return nil
}

type Calculator struct {
	hours HoursResolver
	repo  Repository
}

func NewCalculator(resolver HoursResolver, repo Repository) *Calculator {
	return &Calculator{hours: resolver, repo: repo}
}

// day is the resolved working day shared by Slots and IsFree. cutoff is the
// last wall clock that is no longer bookable.
type day struct {
	open, close model.Clock
	busy        []Interval
	cutoff      model.Clock
}

// Slots lists the bookable start times for q in ascending order. A closed day,
// an inactive employee or a duration longer than the open window all yield an
// empty list without error.
func (c *Calculator) Slots(ctx context.Context, q Query) ([]model.TimeSlot, error) {
	const op = "availability.Slots"
	if err := q.validate(op, true); err != nil {
		return nil, err
	}
	d, open, err := c.load(ctx, op, q)
	if err != nil {
		return nil, err
	}
	if !open {
		return []model.TimeSlot{}, nil
	}

	starts := AvailableSlots(d.open, d.close, q.DurationMinutes, q.StepMinutes, d.busy, d.cutoff)
	out := make([]model.TimeSlot, 0, len(starts))
	for _, t := range starts {
		out = append(out, model.TimeSlot{Time: t, Available: true})
	}
	return out, nil
}

// IsFree reports whether an appointment of q.DurationMinutes could start at
// start, ignoring q.ExcludeAppointmentID. start need not sit on the slot grid,
// so an existing off-grid booking still passes its own re-check.
func (c *Calculator) IsFree(ctx context.Context, q Query, start model.Clock) (bool, error) {
	const op = "availability.IsFree"
	if err := q.validate(op, false); err != nil {
		return false, err
	}
	d, open, err := c.load(ctx, op, q)
	if err != nil || !open {
		return false, err
	}
	return fits(d.open, d.close, start, q.DurationMinutes, d.busy, d.cutoff), nil
}

// load resolves the day for q. open is false for a closed day or an inactive
// employee.
func (c *Calculator) load(ctx context.Context, op string, q Query) (day, bool, error) {
	win, err := c.hours.Resolve(ctx, q.BusinessID, q.Date)
	if err != nil {
		return day{}, false, err
	}
	if win.Closed {
		return day{}, false, nil
	}

	emp, err := c.repo.GetEmployee(ctx, q.EmployeeID)
	if err != nil {
		return day{}, false, notFoundOr(op, "employee", err)
	}
	if emp.BusinessID != q.BusinessID {
		return day{}, false, apperr.NotFound(op, "employee")
	}
	if !emp.IsActive {
		return day{}, false, nil
	}

	existing, err := c.repo.ListBlockingAppointments(ctx, q.EmployeeID, win.Date)
	if err != nil {
		return day{}, false, fmt.Errorf("%s: list appointments: %w", op, err)
	}
	busy := make([]Interval, 0, len(existing))
	for _, a := range existing {
		if a.ID == q.ExcludeAppointmentID || !a.Status.Blocking() {
			continue
		}
		busy = append(busy, Interval{Start: a.StartTime, End: a.EndTime})
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	return day{
		open:   win.Open,
		close:  win.Close,
		busy:   busy,
		cutoff: cutoff(win.Date, now, win.Location),
	}, true, nil
}

// cutoff is the last wall clock on date that is at or before now in loc.
// Past dates are fully cut off and future dates not at all.
func cutoff(date, now time.Time, loc *time.Location) model.Clock {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := model.DateOf(local)
	switch d := model.DateOf(date); {
	case d.Before(today):
		return model.EndOfDay
	case d.After(today):
		return NoCutoff
	}
	return model.ClockOf(local)
}

// DurationForServices loads the active services in serviceIDs (duplicates are
// collapsed) and returns their total duration.
func (c *Calculator) DurationForServices(ctx context.Context, businessID string, serviceIDs []string) (int, []model.Service, error) {
	return TotalDuration(ctx, c.repo, businessID, serviceIDs)
}

func TotalDuration(ctx context.Context, catalog ServiceCatalog, businessID string, serviceIDs []string) (int, []model.Service, error) {
	const op = "availability.DurationForServices"
	ids := Dedupe(serviceIDs)
	if len(ids) == 0 {
		return 0, nil, apperr.Validation(op, "at least one service is required")
	}
	services, err := catalog.GetServices(ctx, businessID, ids)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: load services: %w", op, err)
	}
	byID := make(map[string]model.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	total := 0
	ordered := make([]model.Service, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return 0, nil, apperr.NotFound(op, "service "+id)
		}
		if !s.IsActive {
			return 0, nil, apperr.Validation(op, "service %s is not active", id)
		}
		if s.DurationMinutes <= 0 {
			return 0, nil, apperr.Validation(op, "service %s has non-positive duration", id)
		}
		total += s.DurationMinutes
		ordered = append(ordered, s)
	}
	return total, ordered, nil
}

// Dedupe drops blanks and repeats, keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func notFoundOr(op, what string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound(op, what)
	}
	return fmt.Errorf("%s: load %s: %w", op, what, err)
}
