package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/modification"
)

type Modifier interface {
	Start(ctx context.Context, appointmentID, clientID string) (modification.Session, error)
	Next(ctx context.Context, sessionID, clientID string, in modification.Input) (modification.Session, error)
	Back(ctx context.Context, sessionID, clientID string) (modification.Session, error)
	Confirm(ctx context.Context, sessionID, clientID string) (model.Appointment, error)
}

type ModificationHandler struct {
	svc    Modifier
	logger *slog.Logger
}

func NewModificationHandler(svc Modifier, logger *slog.Logger) *ModificationHandler {
	return &ModificationHandler{svc: svc, logger: logger}
}

type modifyRequest struct {
	AppointmentID string       `json:"appointment_id,omitempty"`
	SessionID     string       `json:"session_id,omitempty"`
	ClientID      string       `json:"client_id"`
	ServiceIDs    []string     `json:"service_ids,omitempty"`
	EmployeeID    string       `json:"employee_id,omitempty"`
	Date          string       `json:"date,omitempty"`
	StartTime     *model.Clock `json:"start_time,omitempty"`
}

func (h *ModificationHandler) decode(w http.ResponseWriter, r *http.Request, needSession bool) (modifyRequest, bool) {
	var req modifyRequest
	if !allow(w, r, http.MethodPost) {
		return req, false
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return req, false
	}
	if req.ClientID == "" {
		badRequest(w, "client_id is required")
		return req, false
	}
	if needSession && req.SessionID == "" {
		badRequest(w, "session_id is required")
		return req, false
	}
	return req, true
}

func (h *ModificationHandler) Start(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, false)
	if !ok {
		return
	}
	if req.AppointmentID == "" {
		badRequest(w, "appointment_id is required")
		return
	}
	sess, err := h.svc.Start(r.Context(), req.AppointmentID, req.ClientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sess)
}

func (h *ModificationHandler) Next(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, true)
	if !ok {
		return
	}
	in := modification.Input{
		ServiceIDs: req.ServiceIDs,
		EmployeeID: req.EmployeeID,
		StartTime:  req.StartTime,
	}
	if req.Date != "" {
		date, err := model.ParseDate(req.Date)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		in.Date = date
	}
	sess, err := h.svc.Next(r.Context(), req.SessionID, req.ClientID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sess)
}

func (h *ModificationHandler) Back(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, true)
	if !ok {
		return
	}
	sess, err := h.svc.Back(r.Context(), req.SessionID, req.ClientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sess)
}

func (h *ModificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, true)
	if !ok {
		return
	}
	appt, err := h.svc.Confirm(r.Context(), req.SessionID, req.ClientID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, viewOf(appt))
}
