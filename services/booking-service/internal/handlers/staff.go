package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/staff"
)

type StaffRemover interface {
	PrepareRemoval(ctx context.Context, employeeID string) (staff.Preparation, error)
	CommitRemoval(ctx context.Context, employeeID, reason string) (staff.Summary, error)
}

type StaffHandler struct {
	mgr    StaffRemover
	logger *slog.Logger
}

func NewStaffHandler(mgr StaffRemover, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{mgr: mgr, logger: logger}
}

type removalRequest struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
	Confirm    bool   `json:"confirm"`
}

type removalResponse struct {
	staff.Summary
	Partial bool `json:"partial"`
}

// Prepare is the read-only first phase: it lists services that would lose
// their last active employee.
func (h *StaffHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req removalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.EmployeeID == "" {
		badRequest(w, "employee_id is required")
		return
	}
	prep, err := h.mgr.PrepareRemoval(r.Context(), req.EmployeeID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, prep)
}

// Commit runs the cascade. A partial failure still answers 200 with the
// summary so the caller can see which clients were not notified.
func (h *StaffHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req removalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.EmployeeID == "" {
		badRequest(w, "employee_id is required")
		return
	}
	if !req.Confirm {
		badRequest(w, "confirm must be true to delete an employee")
		return
	}
	sum, err := h.mgr.CommitRemoval(r.Context(), req.EmployeeID, req.Reason)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, removalResponse{Summary: sum})
	case errors.Is(err, apperr.ErrPartialFailure):
		h.logger.Warn("employee removal finished with failures",
			"employee_id", req.EmployeeID,
			"failed_notifications", sum.FailedNotifications,
			"degraded", sum.Degraded,
		)
		httpx.WriteJSON(w, http.StatusOK, removalResponse{Summary: sum, Partial: true})
	default:
		writeError(w, h.logger, err)
	}
}
