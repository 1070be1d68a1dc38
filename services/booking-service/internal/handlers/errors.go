package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
)

// writeError maps the apperr taxonomy onto HTTP. Unknown errors are logged
// and hidden behind a 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		logger.Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorBody{Error: "internal error"})
		return
	}
	body := httpx.ErrorBody{Error: err.Error(), Kind: ae.Kind.String()}
	status := http.StatusInternalServerError
	switch ae.Kind {
	case apperr.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
		body.Retryable = true
	case apperr.KindClosedDay:
		status = http.StatusOK
	case apperr.KindPartialFailure:
		status = http.StatusOK
	}
	httpx.WriteError(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorBody{Error: msg, Kind: apperr.KindValidation.String()})
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
