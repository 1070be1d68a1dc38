// Package modification is the wizard that edits an existing appointment:
// services, then employee, then date/time, then confirm. The step functions
// here are pure; Service wraps them with store lookups and the final commit.
package modification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type Step int

const (
	StepSelectServices Step = iota
	StepSelectEmployee
	StepSelectDateTime
	StepConfirm
)

var stepNames = [...]string{"select_services", "select_employee", "select_date_time", "confirm"}

func (s Step) String() string {
	if s < StepSelectServices || s > StepConfirm {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Step) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for i, n := range stepNames {
		if n == name {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", name)
}

// State is the wizard's working copy. Original holds the service ids booked
// on the appointment; Services is always a superset of it.
type State struct {
	Step          Step        `json:"step"`
	AppointmentID string      `json:"appointment_id"`
	BusinessID    string      `json:"business_id"`
	ClientID      string      `json:"client_id"`
	Original      []string    `json:"original_service_ids"`
	Services      []string    `json:"service_ids"`
	EmployeeID    string      `json:"employee_id"`
	Date          time.Time   `json:"date"`
	StartTime     model.Clock `json:"start_time"`
	SlotChosen    bool        `json:"slot_chosen"`
}

// Input carries the data for the current step. Empty fields keep the
// current value.
type Input struct {
	ServiceIDs []string
	EmployeeID string
	Date       time.Time
	StartTime  *model.Clock
}

// CanAdvance reports whether the current step's data allows moving forward.
func CanAdvance(s State) error {
	const op = "modification.CanAdvance"
	switch s.Step {
	case StepSelectServices:
		if len(s.Services) == 0 {
			return apperr.Validation(op, "at least one service is required")
		}
		if missing := missingOriginal(s.Original, s.Services); len(missing) > 0 {
			return apperr.Validation(op, "cannot remove booked services")
		}
	case StepSelectEmployee:
		if s.EmployeeID == "" {
			return apperr.Validation(op, "an employee must be selected")
		}
	case StepSelectDateTime:
		if s.Date.IsZero() || !s.SlotChosen {
			return apperr.Validation(op, "a date and time must be selected")
		}
	case StepConfirm:
		return apperr.Validation(op, "confirm is the final step")
	default:
		return apperr.Validation(op, "unknown step %s", s.Step)
	}
	return nil
}

// Advance applies in to the current step and moves one step forward.
// It never skips a step.
func Advance(s State, in Input) (State, error) {
	const op = "modification.Advance"
	next := s
	switch s.Step {
	case StepSelectServices:
		if in.ServiceIDs != nil {
			wanted := availability.Dedupe(in.ServiceIDs)
			if missing := missingOriginal(s.Original, wanted); len(missing) > 0 {
				return s, apperr.Validation(op, "cannot remove booked services: %v", missing)
			}
			next.Services = union(s.Original, wanted)
		}
	case StepSelectEmployee:
		if in.EmployeeID != "" && in.EmployeeID != s.EmployeeID {
			next.EmployeeID = in.EmployeeID
			next.SlotChosen = false
		}
	case StepSelectDateTime:
		if !in.Date.IsZero() {
			next.Date = model.DateOf(in.Date)
		}
		if in.StartTime != nil {
			if !in.StartTime.Valid() {
				return s, apperr.Validation(op, "invalid start time")
			}
			next.StartTime = *in.StartTime
			next.SlotChosen = true
		}
	}
	if err := CanAdvance(next); err != nil {
		return s, err
	}
	next.Step++
	return next, nil
}

// Back moves one step backward; it is always allowed except from the first step.
func Back(s State) (State, error) {
	if s.Step <= StepSelectServices {
		return s, apperr.Validation("modification.Back", "already at the first step")
	}
	s.Step--
	return s, nil
}

// Additions returns the working services that were not on the original booking.
func (s State) Additions() []string {
	orig := make(map[string]struct{}, len(s.Original))
	for _, id := range s.Original {
		orig[id] = struct{}{}
	}
	var out []string
	for _, id := range s.Services {
		if _, ok := orig[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func missingOriginal(original, set []string) []string {
	have := make(map[string]struct{}, len(set))
	for _, id := range set {
		have[id] = struct{}{}
	}
	var missing []string
	for _, id := range original {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func union(original, wanted []string) []string {
	return availability.Dedupe(append(append([]string{}, original...), wanted...))
}
