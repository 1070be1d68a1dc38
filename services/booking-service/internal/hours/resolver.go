package hours

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type Source string

const (
	SourceSpecial Source = "special"
	SourceWeekly  Source = "weekly"
)

// Repository is the read surface the resolver needs. Missing rows are
// reported with ok=false, not as errors.
type Repository interface {
	GetBusiness(ctx context.Context, businessID string) (model.Business, error)
	GetSpecialHours(ctx context.Context, businessID string, date time.Time) (model.SpecialHours, bool, error)
	GetBusinessHours(ctx context.Context, businessID string, dayOfWeek int) (model.BusinessHours, bool, error)
}

// Window is the effective operating window of a business on one date.
type Window struct {
	Date     time.Time
	Closed   bool
	Open     model.Clock
	Close    model.Clock
	Source   Source
	Reason   string
	Location *time.Location
}

func (w Window) Minutes() int {
	if w.Closed {
		return 0
	}
	return int(w.Close - w.Open)
}

type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the window for date. A special-hours row for the exact date
// wins outright; otherwise the weekday row applies, and a missing weekday row
// means closed.
func (r *Resolver) Resolve(ctx context.Context, businessID string, date time.Time) (Window, error) {
	const op = "hours.Resolve"

	biz, err := r.repo.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Window{}, apperr.NotFound(op, "business")
		}
		return Window{}, fmt.Errorf("%s: load business: %w", op, err)
	}
	loc, err := biz.Location()
	if err != nil {
		return Window{}, apperr.Validation(op, "business %s has invalid timezone %q", businessID, biz.Timezone)
	}

	date = model.DateOf(date)
	win := Window{Date: date, Location: loc}

	special, ok, err := r.repo.GetSpecialHours(ctx, businessID, date)
	if err != nil {
		return Window{}, fmt.Errorf("%s: load special hours: %w", op, err)
	}
	if ok {
		win.Source = SourceSpecial
		win.Reason = special.Reason
		return fill(op, win, special.IsClosed, special.OpenTime, special.CloseTime)
	}

	weekly, ok, err := r.repo.GetBusinessHours(ctx, businessID, int(date.Weekday()))
	if err != nil {
		return Window{}, fmt.Errorf("%s: load business hours: %w", op, err)
	}
	win.Source = SourceWeekly
	if !ok {
		win.Closed = true
		return win, nil
	}
	return fill(op, win, weekly.IsClosed, weekly.OpenTime, weekly.CloseTime)
}

func fill(op string, win Window, closed bool, open, close *model.Clock) (Window, error) {
	if closed {
		win.Closed = true
		return win, nil
	}
	if open == nil || close == nil {
		return Window{}, apperr.Validation(op, "%s hours for %s are open but have no open/close time", win.Source, win.Date.Format(model.DateLayout))
	}
	if !open.Valid() || !close.Valid() || *open >= *close {
		return Window{}, apperr.Validation(op, "%s hours for %s have malformed window %s-%s", win.Source, win.Date.Format(model.DateLayout), *open, *close)
	}
	win.Open = *open
	win.Close = *close
	return win, nil
}
