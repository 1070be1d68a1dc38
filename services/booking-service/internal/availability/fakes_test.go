package availability

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type fakeHours struct {
	windows map[string]hours.Window
	err     error
}

func (f *fakeHours) Resolve(_ context.Context, _ string, date time.Time) (hours.Window, error) {
	if f.err != nil {
		return hours.Window{}, f.err
	}
	w, ok := f.windows[date.Format(model.DateLayout)]
	if !ok {
		return hours.Window{Date: model.DateOf(date), Closed: true, Location: time.UTC}, nil
	}
	return w, nil
}

type fakeRepo struct {
	employees    map[string]model.Employee
	services     map[string]model.Service
	appointments []model.Appointment
}

func (f *fakeRepo) GetEmployee(_ context.Context, id string) (model.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return model.Employee{}, apperr.NotFound("fake", "employee")
	}
	return e, nil
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

func (f *fakeRepo) ListBlockingAppointments(_ context.Context, employeeID string, date time.Time) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appointments {
		if a.EmployeeID == employeeID && a.AppointmentDate.Equal(date) && a.Status.Blocking() {
			out = append(out, a)
		}
	}
	return out, nil
}
