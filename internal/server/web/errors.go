package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/photogallery/internal/common"
)

// errBadRequest marks malformed input (path parameters, JSON bodies).
var errBadRequest = errors.New("bad request")

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrValidation), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers an API request with a JSON error body. Internal
// errors are logged and their details withheld.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = common.ErrorInternal.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError answers an HTML request. Only not-found and bad input are
// reported as such; everything else is a 500.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound, http.StatusBadRequest:
	default:
		status = http.StatusInternalServerError
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	http.Error(w, http.StatusText(status), status)
}
