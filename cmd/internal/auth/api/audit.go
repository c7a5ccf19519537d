package authapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Login outcomes are logged as audit events and counted. The email is logged as
// typed; the password never is.

func (h *Handler) loginFailed(r *http.Request, a loginAttempt, now time.Time, reason string) {
	h.recordLoginFailure(r, a, now)
	h.logins.WithLabelValues("fail").Inc()
	h.log.Info("auth.login.fail",
		"reason", reason,
		"email", a.email,
		"ip", ipString(a.ip),
		"ua", r.UserAgent(),
	)
}

func (h *Handler) loginSucceeded(r *http.Request, a loginAttempt, userID uuid.UUID) {
	if err := h.loginEmail.Reset(r.Context(), a.emailKey()); err != nil {
		h.log.Warn("auth.login.throttle_email.reset_fail", "err", err)
	}
	h.logins.WithLabelValues("ok").Inc()
	h.log.Info("auth.login.ok",
		"user_id", userID,
		"ip", ipString(a.ip),
	)
}

func (h *Handler) loginRateLimited(r *http.Request, a loginAttempt, retryAfter time.Duration) {
	h.logins.WithLabelValues("rate_limited").Inc()
	h.log.Warn("auth.login.rate_limited",
		"email", a.email,
		"ip", ipString(a.ip),
		"retry_after_s", int64(retryAfter.Seconds()),
		"ua", r.UserAgent(),
	)
}
