// Package lifecycle decides which status changes an appointment may take,
// for client actions (cancel, reschedule, review) and business-side moves.
package lifecycle

import (
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

// clientMutable holds the statuses a client may still cancel or reschedule from.
func clientMutable(s model.Status) bool {
	return s == model.StatusPending || s == model.StatusConfirmed
}

// Terminal reports whether no client action applies any more.
func Terminal(s model.Status) bool {
	return s == model.StatusCompleted || s == model.StatusCancelled || s == model.StatusNoShow
}

func CanCancel(a model.Appointment, loc *time.Location, now time.Time) error {
	return checkUpcoming("lifecycle.CanCancel", "cancelled", a, loc, now)
}

func CanReschedule(a model.Appointment, loc *time.Location, now time.Time) error {
	return checkUpcoming("lifecycle.CanReschedule", "rescheduled", a, loc, now)
}

func checkUpcoming(op, verb string, a model.Appointment, loc *time.Location, now time.Time) error {
	if !clientMutable(a.Status) {
		return apperr.Validation(op, "appointment in status %s cannot be %s", a.Status, verb)
	}
	if !a.StartsAt(loc).After(now) {
		return apperr.Validation(op, "appointment has already started and cannot be %s", verb)
	}
	return nil
}

func CanReview(a model.Appointment) error {
	if a.Status != model.StatusCompleted {
		return apperr.Validation("lifecycle.CanReview", "only completed appointments can be reviewed (status %s)", a.Status)
	}
	return nil
}

var businessMoves = map[model.Status][]model.Status{
	model.StatusPending:    {model.StatusConfirmed, model.StatusCancelled, model.StatusNoShow},
	model.StatusConfirmed:  {model.StatusInProgress, model.StatusCancelled, model.StatusNoShow},
	model.StatusInProgress: {model.StatusCompleted, model.StatusNoShow},
}

// ValidateBusinessTransition allows only forward moves; terminal states have none.
func ValidateBusinessTransition(from, to model.Status) error {
	const op = "lifecycle.ValidateBusinessTransition"
	if !to.Valid() {
		return apperr.Validation(op, "unknown status %q", to)
	}
	for _, next := range businessMoves[from] {
		if next == to {
			return nil
		}
	}
	return apperr.Validation(op, "cannot move appointment from %s to %s", from, to)
}
