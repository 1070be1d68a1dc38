package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type SlotCalculator interface {
	Slots(ctx context.Context, q availability.Query) ([]model.TimeSlot, error)
	DurationForServices(ctx context.Context, businessID string, serviceIDs []string) (int, []model.Service, error)
}

type HoursResolver interface {
	Resolve(ctx context.Context, businessID string, date time.Time) (hours.Window, error)
}

type AvailabilityHandler struct {
	calc   SlotCalculator
	hours  HoursResolver
	step   int
	logger *slog.Logger
	now    func() time.Time
}

func NewAvailabilityHandler(calc SlotCalculator, resolver HoursResolver, stepMinutes int, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{calc: calc, hours: resolver, step: stepMinutes, logger: logger, now: time.Now}
}

type slotsResponse struct {
	BusinessID      string           `json:"business_id"`
	EmployeeID      string           `json:"employee_id"`
	Date            string           `json:"date"`
	DurationMinutes int              `json:"duration_minutes"`
	StepMinutes     int              `json:"slot_step_minutes"`
	Slots           []model.TimeSlot `json:"slots"`
}

// Slots serves GET /api/v1/public/slots?business_id=&employee_id=&date=&service_ids=a,b
// (or duration_minutes=) [&slot_step_minutes=].
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	businessID := strings.TrimSpace(q.Get("business_id"))
	employeeID := strings.TrimSpace(q.Get("employee_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if businessID == "" || employeeID == "" || dateStr == "" {
		badRequest(w, "business_id, employee_id and date are required")
		return
	}
	date, err := model.ParseDate(dateStr)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	step := h.step
	if raw := strings.TrimSpace(q.Get("slot_step_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "invalid slot_step_minutes")
			return
		}
		step = n
	}

	var duration int
	if ids := config.List(q.Get("service_ids")); len(ids) > 0 {
		duration, _, err = h.calc.DurationForServices(r.Context(), businessID, ids)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
	} else {
		raw := strings.TrimSpace(q.Get("duration_minutes"))
		if raw == "" {
			badRequest(w, "service_ids or duration_minutes is required")
			return
		}
		if duration, err = strconv.Atoi(raw); err != nil {
			badRequest(w, "invalid duration_minutes")
			return
		}
	}

	slots, err := h.calc.Slots(r.Context(), availability.Query{
		BusinessID:      businessID,
		EmployeeID:      employeeID,
		Date:            date,
		DurationMinutes: duration,
		StepMinutes:     step,
		Now:             h.now(),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{
		BusinessID:      businessID,
		EmployeeID:      employeeID,
		Date:            date.Format(model.DateLayout),
		DurationMinutes: duration,
		StepMinutes:     step,
		Slots:           slots,
	})
}

type effectiveHoursResponse struct {
	BusinessID string       `json:"business_id"`
	Date       string       `json:"date"`
	Closed     bool         `json:"closed"`
	OpenTime   *model.Clock `json:"open_time,omitempty"`
	CloseTime  *model.Clock `json:"close_time,omitempty"`
	Source     hours.Source `json:"source"`
	Reason     string       `json:"reason,omitempty"`
	Timezone   string       `json:"timezone"`
}

// EffectiveHours serves GET /api/v1/hours/effective?business_id=&date=.
func (h *AvailabilityHandler) EffectiveHours(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if businessID == "" || dateStr == "" {
		badRequest(w, "business_id and date are required")
		return
	}
	date, err := model.ParseDate(dateStr)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	win, err := h.hours.Resolve(r.Context(), businessID, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := effectiveHoursResponse{
		BusinessID: businessID,
		Date:       date.Format(model.DateLayout),
		Closed:     win.Closed,
		Source:     win.Source,
		Reason:     win.Reason,
		Timezone:   "UTC",
	}
	if win.Location != nil {
		resp.Timezone = win.Location.String()
	}
	if !win.Closed {
		open, close := win.Open, win.Close
		resp.OpenTime, resp.CloseTime = &open, &close
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
