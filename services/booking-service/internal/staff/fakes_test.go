package staff

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
)

var (
	day     = time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	testNow = day.Add(12 * time.Hour)
)

// fakeStore models one business with employees, assignments and appointments.
type fakeStore struct {
	employees   map[string]model.Employee
	services    map[string]model.Service
	assignments map[string][]string // service id -> employee ids
	appts       []AffectedAppointment
	lookupErr   error
	demoteFail  map[string]bool
	deleteErr   error
	demoted     []string
	deleted     []string
	writes      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees: map[string]model.Employee{
			"emp-1": {ID: "emp-1", BusinessID: "biz-1", Name: "Ana", IsActive: true},
			"emp-2": {ID: "emp-2", BusinessID: "biz-1", Name: "Bo", IsActive: true},
			"emp-3": {ID: "emp-3", BusinessID: "biz-1", Name: "Cy", IsActive: false},
		},
		services: map[string]model.Service{
			"color":    {ID: "color", BusinessID: "biz-1", Name: "Color", IsActive: true},
			"balayage": {ID: "balayage", BusinessID: "biz-1", Name: "Balayage", IsActive: true},
		},
		assignments: map[string][]string{
			"color":    {"emp-1", "emp-2"},
			"balayage": {"emp-1", "emp-3"},
		},
		demoteFail: map[string]bool{},
	}
}

func (f *fakeStore) GetBusiness(_ context.Context, id string) (model.Business, error) {
	return model.Business{ID: id, Timezone: "UTC"}, nil
}

func (f *fakeStore) GetEmployee(_ context.Context, id string) (model.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return model.Employee{}, apperr.NotFound("fake", "employee")
	}
	return e, nil
}

func (f *fakeStore) ServiceStaffing(_ context.Context, employeeID string) ([]ServiceStaffing, error) {
	var out []ServiceStaffing
	for _, id := range []string{"balayage", "color"} {
		staff := f.assignments[id]
		mine := false
		others := 0
		for _, e := range staff {
			if e == employeeID {
				mine = true
				continue
			}
			if f.employees[e].IsActive {
				others++
			}
		}
		if mine {
			out = append(out, ServiceStaffing{Service: f.services[id], OtherActiveStaff: others})
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteEmployee(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.writes++
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListAffectedAppointments(_ context.Context, employeeID string, from time.Time) ([]AffectedAppointment, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []AffectedAppointment
	for _, a := range f.appts {
		if a.Appointment.EmployeeID == employeeID && !a.Appointment.AppointmentDate.Before(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) DemoteToPending(_ context.Context, id string) error {
	if f.demoteFail[id] {
		return errors.New("row locked")
	}
	f.writes++
	f.demoted = append(f.demoted, id)
	return nil
}

func (f *fakeStore) add(id string, date time.Time, start model.Clock, status model.Status, client model.Client) {
	f.appts = append(f.appts, AffectedAppointment{
		Appointment: model.Appointment{
			ID: id, BusinessID: "biz-1", EmployeeID: "emp-1", ClientID: client.ID,
			AppointmentDate: date, StartTime: start, EndTime: start.Add(60), Status: status,
		},
		Client: client,
	})
}

// fakeAppender fails the outbox write for chosen appointments.
type fakeAppender struct {
	fail   map[string]bool
	events []outbox.Event
}

func (f *fakeAppender) Append(_ context.Context, evt outbox.Event) error {
	if f.fail[evt.AggregateID] {
		return errors.New("outbox insert failed")
	}
	f.events = append(f.events, evt)
	return nil
}

func newManager(store *fakeStore, appender *fakeAppender) *Manager {
	m := NewManager(store, store, NewOutboxQueue(appender), slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = func() time.Time { return testNow }
	return m
}
