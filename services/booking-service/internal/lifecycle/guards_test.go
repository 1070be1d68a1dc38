package lifecycle

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

func TestCanCancelAndReschedule(t *testing.T) {
	cases := []struct {
		name   string
		status model.Status
		start  model.Clock
		ok     bool
	}{
		{"pending future", model.StatusPending, model.NewClock(10, 0), true},
		{"confirmed future", model.StatusConfirmed, model.NewClock(10, 0), true},
		{"starts exactly now", model.StatusConfirmed, model.NewClock(8, 0), false},
		{"already past", model.StatusPending, model.NewClock(7, 0), false},
		{"in progress", model.StatusInProgress, model.NewClock(10, 0), false},
		{"completed", model.StatusCompleted, model.NewClock(10, 0), false},
		{"cancelled", model.StatusCancelled, model.NewClock(10, 0), false},
		{"no show", model.StatusNoShow, model.NewClock(10, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := appointment("a-1", tc.status, tc.start)
			for name, guard := range map[string]func() error{
				"cancel":     func() error { return CanCancel(a, nil, testNow) },
				"reschedule": func() error { return CanReschedule(a, nil, testNow) },
			} {
				err := guard()
				if tc.ok && err != nil {
					t.Fatalf("%s: expected allowed, got %v", name, err)
				}
				if !tc.ok && !errors.Is(err, apperr.ErrValidation) {
					t.Fatalf("%s: expected ValidationError, got %v", name, err)
				}
			}
		})
	}
}

func TestCanCancelOnDSTChangeover(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 2026-03-29 loses an hour in Berlin; a 10:00 booking has started by 10:30 local.
	a := model.Appointment{
		ID: "a-1", Status: model.StatusConfirmed,
		AppointmentDate: time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC),
		StartTime:       model.NewClock(10, 0), EndTime: model.NewClock(10, 30),
	}
	now := time.Date(2026, 3, 29, 10, 30, 0, 0, berlin)
	if err := CanCancel(a, berlin, now); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ValidationError for a started appointment, got %v", err)
	}
	if err := CanCancel(a, berlin, now.Add(-time.Hour)); err != nil {
		t.Fatalf("expected allowed at 09:30 local, got %v", err)
	}
}

func TestCanReview(t *testing.T) {
	if err := CanReview(appointment("a-1", model.StatusCompleted, 0)); err != nil {
		t.Fatalf("completed appointment should be reviewable: %v", err)
	}
	for _, s := range []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusInProgress, model.StatusCancelled, model.StatusNoShow} {
		if err := CanReview(appointment("a-1", s, 0)); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("status %s: expected ValidationError, got %v", s, err)
		}
	}
}

func TestValidateBusinessTransition(t *testing.T) {
	allowed := [][2]model.Status{
		{model.StatusPending, model.StatusConfirmed},
		{model.StatusConfirmed, model.StatusInProgress},
		{model.StatusInProgress, model.StatusCompleted},
		{model.StatusPending, model.StatusCancelled},
		{model.StatusConfirmed, model.StatusNoShow},
		{model.StatusInProgress, model.StatusNoShow},
	}
	for _, tr := range allowed {
		if err := ValidateBusinessTransition(tr[0], tr[1]); err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", tr[0], tr[1], err)
		}
	}
	refused := [][2]model.Status{
		{model.StatusConfirmed, model.StatusPending},
		{model.StatusCompleted, model.StatusInProgress},
		{model.StatusCancelled, model.StatusPending},
		{model.StatusNoShow, model.StatusConfirmed},
		{model.StatusPending, model.StatusCompleted},
		{model.StatusInProgress, model.StatusCancelled},
		{model.StatusPending, model.Status("archived")},
	}
	for _, tr := range refused {
		if err := ValidateBusinessTransition(tr[0], tr[1]); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%s -> %s should be refused, got %v", tr[0], tr[1], err)
		}
	}
	for _, s := range []model.Status{model.StatusCompleted, model.StatusCancelled, model.StatusNoShow} {
		if !Terminal(s) {
			t.Fatalf("%s should be terminal", s)
		}
	}
}
