package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/storage"
)

const apptID = "6f1c2a52-1f0e-4a3b-9d0c-2b7f4f6a9e11"

type fakeHistory struct {
	items []storage.Notification
	err   error
	asked string
}

func (f *fakeHistory) ListByAppointment(_ context.Context, id string) ([]storage.Notification, error) {
	f.asked = id
	return f.items, f.err
}

func newTestMux(h History) *http.ServeMux {
	mux := http.NewServeMux()
	NewHistoryHandler(h, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux)
	return mux
}

func TestListNotifications(t *testing.T) {
	fake := &fakeHistory{items: []storage.Notification{
		{ID: 1, AppointmentID: apptID, Type: "employee_deleted", Channel: "email", Recipient: "ana@example.com", Status: "sent"},
		{ID: 2, AppointmentID: apptID, Type: "employee_deleted", Channel: "sms", Recipient: "+15550100", Status: "failed", Error: "502"},
	}}
	rw := httptest.NewRecorder()
	newTestMux(fake).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/notifications?appointment_id="+apptID, nil))

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	var resp historyResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fake.asked != apptID || len(resp.Notifications) != 2 || resp.Notifications[1].Error != "502" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestListNotificationsEmptyIsArray(t *testing.T) {
	rw := httptest.NewRecorder()
	newTestMux(&fakeHistory{}).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/notifications?appointment_id="+apptID, nil))
	if rw.Code != http.StatusOK || !json.Valid(rw.Body.Bytes()) {
		t.Fatalf("unexpected response %d %s", rw.Code, rw.Body.String())
	}
	var resp map[string]json.RawMessage
	_ = json.Unmarshal(rw.Body.Bytes(), &resp)
	if string(resp["notifications"]) != "[]" {
		t.Fatalf("expected empty array, got %s", resp["notifications"])
	}
}

func TestListNotificationsValidation(t *testing.T) {
	rw := httptest.NewRecorder()
	newTestMux(&fakeHistory{}).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/notifications?appointment_id=nope", nil))
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}

	rw = httptest.NewRecorder()
	newTestMux(&fakeHistory{}).ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/api/v1/notifications", nil))
	if rw.Code != http.StatusMethodNotAllowed || rw.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("expected 405 with Allow, got %d", rw.Code)
	}
}

func TestListNotificationsStoreError(t *testing.T) {
	rw := httptest.NewRecorder()
	newTestMux(&fakeHistory{err: errors.New("db down")}).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/notifications?appointment_id="+apptID, nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
}
