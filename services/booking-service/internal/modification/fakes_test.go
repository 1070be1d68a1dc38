package modification

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

var (
	day     = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	testNow = day.Add(-48 * time.Hour)
)

type fakeRepo struct {
	appts      map[string]model.Appointment
	booked     map[string][]model.AppointmentService
	employees  map[string]model.Employee
	assigned   map[string][]string
	services   map[string]model.Service
	changes    []model.AppointmentChange
	applyError error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appts: map[string]model.Appointment{
			"a-1": {
				ID: "a-1", BusinessID: "biz-1", EmployeeID: "emp-1", ClientID: "cli-1",
				AppointmentDate: day, StartTime: model.NewClock(10, 0), EndTime: model.NewClock(10, 30),
				Status: model.StatusConfirmed, TotalPriceCents: 2000,
			},
		},
		// Booked at an older price than the catalog's.
		booked: map[string][]model.AppointmentService{
			"a-1": {{AppointmentID: "a-1", ServiceID: "cut", PriceCents: 2000}},
		},
		employees: map[string]model.Employee{
			"emp-1": {ID: "emp-1", BusinessID: "biz-1", IsActive: true},
			"emp-2": {ID: "emp-2", BusinessID: "biz-1", IsActive: true},
			"emp-3": {ID: "emp-3", BusinessID: "biz-1", IsActive: false},
		},
		assigned: map[string][]string{
			"emp-1": {"cut", "color"},
			"emp-2": {"cut"},
			"emp-3": {"cut", "color"},
		},
		services: map[string]model.Service{
			"cut":   {ID: "cut", BusinessID: "biz-1", DurationMinutes: 30, PriceCents: 2500, IsActive: true},
			"color": {ID: "color", BusinessID: "biz-1", DurationMinutes: 60, PriceCents: 6000, IsActive: true},
			"gone":  {ID: "gone", BusinessID: "biz-1", DurationMinutes: 15, PriceCents: 100, IsActive: false},
		},
	}
}

func (f *fakeRepo) GetBusiness(_ context.Context, id string) (model.Business, error) {
	return model.Business{ID: id, Timezone: "UTC"}, nil
}

func (f *fakeRepo) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, apperr.NotFound("fake", "appointment")
	}
	return a, nil
}

func (f *fakeRepo) ListAppointmentServices(_ context.Context, id string) ([]model.AppointmentService, error) {
	return f.booked[id], nil
}

func (f *fakeRepo) GetEmployee(_ context.Context, id string) (model.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return model.Employee{}, apperr.NotFound("fake", "employee")
	}
	return e, nil
}

func (f *fakeRepo) EmployeeServiceIDs(_ context.Context, id string) ([]string, error) {
	return f.assigned[id], nil
}

func (f *fakeRepo) GetServices(_ context.Context, _ string, ids []string) ([]model.Service, error) {
	var out []model.Service
	for _, id := range ids {
		if s, ok := f.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) ApplyChange(_ context.Context, c model.AppointmentChange) (model.Appointment, error) {
	if f.applyError != nil {
		return model.Appointment{}, f.applyError
	}
	f.changes = append(f.changes, c)
	a := f.appts[c.AppointmentID]
	a.EmployeeID = c.EmployeeID
	a.AppointmentDate = c.Date
	a.StartTime = c.StartTime
	a.EndTime = c.EndTime
	a.TotalPriceCents = c.TotalPriceCents
	a.Status = model.StatusPending
	f.appts[a.ID] = a
	f.booked[a.ID] = append(f.booked[a.ID], c.AddedServices...)
	return a, nil
}

// fakeSlots answers IsFree from a set of taken start times.
type fakeSlots struct {
	taken   map[model.Clock]bool
	queries []availability.Query
}

func (f *fakeSlots) IsFree(_ context.Context, q availability.Query, start model.Clock) (bool, error) {
	f.queries = append(f.queries, q)
	return !f.taken[start], nil
}

type memSessions struct {
	data map[string][]byte
}

func (m *memSessions) Save(_ context.Context, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[id] = b
	return nil
}

func (m *memSessions) Load(_ context.Context, id string, v any) error {
	b, ok := m.data[id]
	if !ok {
		return apperr.NotFound("fake", "session")
	}
	return json.Unmarshal(b, v)
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	delete(m.data, id)
	return nil
}

// ListBlockingAppointments lets fakeRepo back a real availability.Calculator.
func (f *fakeRepo) ListBlockingAppointments(_ context.Context, employeeID string, date time.Time) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.EmployeeID == employeeID && a.AppointmentDate.Equal(date) && a.Status.Blocking() {
			out = append(out, a)
		}
	}
	return out, nil
}

// openHours keeps every day open 09:00-18:00 UTC.
type openHours struct{}

func (openHours) Resolve(_ context.Context, _ string, date time.Time) (hours.Window, error) {
	return hours.Window{
		Date: model.DateOf(date), Open: model.NewClock(9, 0), Close: model.NewClock(18, 0),
		Source: hours.SourceWeekly, Location: time.UTC,
	}, nil
}

func newService(repo *fakeRepo, slots *fakeSlots) (*Service, *memSessions) {
	return newServiceWith(repo, slots)
}

func newServiceWith(repo *fakeRepo, slots SlotChecker) (*Service, *memSessions) {
	sessions := &memSessions{data: map[string][]byte{}}
	svc := NewService(repo, slots, sessions, 30, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return testNow }
	return svc, sessions
}
