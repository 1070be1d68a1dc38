package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

var (
	day     = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	testNow = day.Add(8 * time.Hour)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	appts   map[string]model.Appointment
	reviews map[string]model.Review
	changes []model.AppointmentChange
}

func newFakeRepo(appts ...model.Appointment) *fakeRepo {
	r := &fakeRepo{appts: map[string]model.Appointment{}, reviews: map[string]model.Review{}}
	for _, a := range appts {
		r.appts[a.ID] = a
	}
	return r
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

func (f *fakeRepo) ApplyChange(_ context.Context, c model.AppointmentChange) (model.Appointment, error) {
	f.changes = append(f.changes, c)
	a := f.appts[c.AppointmentID]
	a.EmployeeID = c.EmployeeID
	a.AppointmentDate = c.Date
	a.StartTime = c.StartTime
	a.EndTime = c.EndTime
	a.TotalPriceCents = c.TotalPriceCents
	a.Status = model.StatusPending
	f.appts[a.ID] = a
	return a, nil
}

func (f *fakeRepo) CancelAppointment(_ context.Context, id, note string, at time.Time) (model.Appointment, error) {
	a := f.appts[id]
	a.Status = model.StatusCancelled
	a.CancellationNote = note
	a.CancelledAt = &at
	f.appts[id] = a
	return a, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, from, to model.Status) (model.Appointment, error) {
	a := f.appts[id]
	if a.Status != from {
		return model.Appointment{}, apperr.Conflict("fake", "status changed")
	}
	a.Status = to
	f.appts[id] = a
	return a, nil
}

func (f *fakeRepo) CreateReview(_ context.Context, r model.Review) (model.Review, error) {
	if _, ok := f.reviews[r.AppointmentID]; ok {
		return model.Review{}, apperr.Conflict("fake", "appointment already reviewed")
	}
	f.reviews[r.AppointmentID] = r
	return r, nil
}

type fakeSlots struct {
	free    bool
	queries []availability.Query
}

func (f *fakeSlots) IsFree(_ context.Context, q availability.Query, _ model.Clock) (bool, error) {
	f.queries = append(f.queries, q)
	return f.free, nil
}

func appointment(id string, status model.Status, start model.Clock) model.Appointment {
	return model.Appointment{
		ID:              id,
		BusinessID:      "biz-1",
		EmployeeID:      "emp-1",
		ClientID:        "cli-1",
		AppointmentDate: day,
		StartTime:       start,
		EndTime:         start.Add(60),
		Status:          status,
		TotalPriceCents: 5000,
	}
}

func newService(repo *fakeRepo, slots *fakeSlots) *Service {
	s := NewService(repo, slots, 30, discardLogger())
	s.now = func() time.Time { return testNow }
	return s
}
