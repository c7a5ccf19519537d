package authapi

import (
	"errors"
	"net/http"

	"conduit/cmd/internal/apperr"
	"conduit/cmd/internal/auth/session"
)

// writeAppError maps the apperr taxonomy onto HTTP. Internal details never reach the body.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidation(w, ve.Fields)
	case apperr.IsUnauthorized(err):
		w.Header().Set("WWW-Authenticate", session.Scheme)
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case apperr.IsForbidden(err):
		writeError(w, http.StatusForbidden, "forbidden", errMsg(err, "forbidden"))
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", errMsg(err, "resource")+" not found")
	case apperr.IsTransient(err):
		h.log.Warn("http.request.transient", "path", r.URL.Path, "err", err)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "server_busy", "please retry later")
	default:
		h.log.Error("http.request.fail", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func errMsg(err error, def string) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Msg != "" {
		return ae.Msg
	}
	return def
}
