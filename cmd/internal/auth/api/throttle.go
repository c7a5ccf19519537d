package authapi

import (
	"net"
	"net/http"
	"strconv"
	"time"
)

type loginAttempt struct {
	ip    net.IP
	email string
}

func (a loginAttempt) ipKey() string {
	if a.ip == nil {
		return ""
	}
	return "ip:" + a.ip.String()
}

func (a loginAttempt) emailKey() string { return "email:" + a.email }

// checkLoginThrottle writes 429 and returns true when either key is over its limit.
// A throttle backend failure fails closed with 503.
func (h *Handler) checkLoginThrottle(w http.ResponseWriter, r *http.Request, a loginAttempt, now time.Time) bool {
	ctx := r.Context()

	if key := a.ipKey(); key != "" {
		retry, blocked, err := h.loginIP.Blocked(ctx, key, now)
		if err != nil {
			h.log.Error("auth.login.throttle_ip.fail", "err", err)
			writeError(w, http.StatusServiceUnavailable, "server_busy", "please retry later")
			return true
		}
		if blocked {
			h.loginRateLimited(r, a, retry)
			writeRateLimited(w, retry)
			return true
		}
	}

	retry, blocked, err := h.loginEmail.Blocked(ctx, a.emailKey(), now)
	if err != nil {
		h.log.Error("auth.login.throttle_email.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "server_busy", "please retry later")
		return true
	}
	if blocked {
		h.loginRateLimited(r, a, retry)
		writeRateLimited(w, retry)
		return true
	}
	return false
}

func (h *Handler) recordLoginFailure(r *http.Request, a loginAttempt, now time.Time) {
	ctx := r.Context()
	if key := a.ipKey(); key != "" {
		if err := h.loginIP.Hit(ctx, key, now); err != nil {
			h.log.Warn("auth.login.throttle_ip.record_fail", "err", err)
		}
	}
	if err := h.loginEmail.Hit(ctx, a.emailKey(), now); err != nil {
		h.log.Warn("auth.login.throttle_email.record_fail", "err", err)
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64((retryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
