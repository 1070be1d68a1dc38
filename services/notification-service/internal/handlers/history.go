package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/storage"
)

type History interface {
	ListByAppointment(ctx context.Context, appointmentID string) ([]storage.Notification, error)
}

// HistoryHandler lists the delivery attempts made for one appointment.
type HistoryHandler struct {
	history History
	logger  *slog.Logger
}

func NewHistoryHandler(history History, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

type historyResponse struct {
	AppointmentID string                 `json:"appointment_id"`
	Notifications []storage.Notification `json:"notifications"`
}

func (h *HistoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/notifications", h.List)
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		httpx.WriteError(w, http.StatusMethodNotAllowed, httpx.ErrorBody{Error: "method not allowed"})
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("appointment_id"))
	if _, err := uuid.Parse(id); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorBody{Error: "appointment_id must be a uuid", Kind: "validation"})
		return
	}

	items, err := h.history.ListByAppointment(r.Context(), id)
	if err != nil {
		h.logger.Error("list notifications failed", "err", err, "appointment_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorBody{Error: "internal error"})
		return
	}
	if items == nil {
		items = []storage.Notification{}
	}
	httpx.WriteJSON(w, http.StatusOK, historyResponse{AppointmentID: id, Notifications: items})
}
