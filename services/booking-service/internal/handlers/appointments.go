package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type Lifecycle interface {
	Cancel(ctx context.Context, req lifecycle.CancelRequest) (model.Appointment, error)
	Reschedule(ctx context.Context, req lifecycle.RescheduleRequest) (model.Appointment, error)
	Review(ctx context.Context, req lifecycle.ReviewRequest) (model.Review, error)
	Transition(ctx context.Context, req lifecycle.TransitionRequest) (model.Appointment, error)
}

type AppointmentHandler struct {
	svc    Lifecycle
	logger *slog.Logger
}

func NewAppointmentHandler(svc Lifecycle, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

type appointmentView struct {
	ID               string       `json:"id"`
	BusinessID       string       `json:"business_id"`
	EmployeeID       string       `json:"employee_id,omitempty"`
	ClientID         string       `json:"client_id"`
	Date             string       `json:"appointment_date"`
	StartTime        model.Clock  `json:"start_time"`
	EndTime          model.Clock  `json:"end_time"`
	Status           model.Status `json:"status"`
	TotalPriceCents  int64        `json:"total_price_cents"`
	CancellationNote string       `json:"cancellation_note,omitempty"`
	CancelledAt      *time.Time   `json:"cancelled_at,omitempty"`
}

func viewOf(a model.Appointment) appointmentView {
	return appointmentView{
		ID:               a.ID,
		BusinessID:       a.BusinessID,
		EmployeeID:       a.EmployeeID,
		ClientID:         a.ClientID,
		Date:             a.AppointmentDate.Format(model.DateLayout),
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		Status:           a.Status,
		TotalPriceCents:  a.TotalPriceCents,
		CancellationNote: a.CancellationNote,
		CancelledAt:      a.CancelledAt,
	}
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
	ClientID      string `json:"client_id"`
	Note          string `json:"note"`
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.AppointmentID == "" || req.ClientID == "" {
		badRequest(w, "appointment_id and client_id are required")
		return
	}
	appt, err := h.svc.Cancel(r.Context(), lifecycle.CancelRequest{
		AppointmentID: req.AppointmentID,
		ClientID:      req.ClientID,
		Note:          req.Note,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, viewOf(appt))
}

type rescheduleRequest struct {
	AppointmentID string      `json:"appointment_id"`
	ClientID      string      `json:"client_id"`
	Date          string      `json:"date"`
	StartTime     model.Clock `json:"start_time"`
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req rescheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.AppointmentID == "" || req.ClientID == "" || req.Date == "" {
		badRequest(w, "appointment_id, client_id and date are required")
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	appt, err := h.svc.Reschedule(r.Context(), lifecycle.RescheduleRequest{
		AppointmentID: req.AppointmentID,
		ClientID:      req.ClientID,
		Date:          date,
		StartTime:     req.StartTime,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, viewOf(appt))
}

type reviewRequest struct {
	AppointmentID string `json:"appointment_id"`
	ClientID      string `json:"client_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

type reviewResponse struct {
	AppointmentID string    `json:"appointment_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *AppointmentHandler) Review(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req reviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.AppointmentID == "" || req.ClientID == "" {
		badRequest(w, "appointment_id and client_id are required")
		return
	}
	rev, err := h.svc.Review(r.Context(), lifecycle.ReviewRequest{
		AppointmentID: req.AppointmentID,
		ClientID:      req.ClientID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, reviewResponse{
		AppointmentID: rev.AppointmentID,
		Rating:        rev.Rating,
		Comment:       rev.Comment,
		CreatedAt:     rev.CreatedAt,
	})
}

type statusRequest struct {
	AppointmentID string `json:"appointment_id"`
	BusinessID    string `json:"business_id"`
	Status        string `json:"status"`
}

// Status is the business-side transition endpoint.
func (h *AppointmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	to := model.Status(strings.TrimSpace(req.Status))
	if req.AppointmentID == "" || req.BusinessID == "" {
		badRequest(w, "appointment_id and business_id are required")
		return
	}
	if !to.Valid() {
		badRequest(w, "unknown status")
		return
	}
	appt, err := h.svc.Transition(r.Context(), lifecycle.TransitionRequest{
		AppointmentID: req.AppointmentID,
		BusinessID:    req.BusinessID,
		To:            to,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, viewOf(appt))
}
