package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"conduit/cmd/identity"
	"conduit/cmd/internal/auth/session"
	"conduit/cmd/internal/ratelimit"
	"conduit/cmd/security/password"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TokenIssuer mints session tokens. *token.Codec satisfies it.
type TokenIssuer interface {
	Issue(id uuid.UUID) (string, error)
}

// Hasher is the credential surface the handlers need. *password.Hasher satisfies it.
type Hasher interface {
	Validate(plaintext string) error
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, record string) error
	DummyVerify(ctx context.Context, plaintext string) error
}

// Handler wires the HTTP endpoints to the identity store and the credential core.
type Handler struct {
	log *slog.Logger
	cfg Config

	store  identity.Store
	hasher Hasher
	tokens TokenIssuer
	auth   *session.Extractor

	loginIP    ratelimit.Limiter
	loginEmail ratelimit.Limiter

	logins *prometheus.CounterVec
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithLoginLimiters replaces the in-memory login throttles (e.g. with Redis-backed ones).
func WithLoginLimiters(byIP, byEmail ratelimit.Limiter) HandlerOption {
	return func(h *Handler) {
		if byIP != nil {
			h.loginIP = byIP
		}
		if byEmail != nil {
			h.loginEmail = byEmail
		}
	}
}

// WithRegisterer registers the handler metrics on reg.
func WithRegisterer(reg prometheus.Registerer) HandlerOption {
	return func(h *Handler) {
		h.logins = newLoginCounter(reg)
	}
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, cfg Config, store identity.Store, hasher Hasher, tokens TokenIssuer, auth *session.Extractor, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil || hasher == nil || tokens == nil || auth == nil {
		return nil, errors.New("authapi: store, hasher, tokens and extractor are required")
	}

	h := &Handler{
		log:        log,
		cfg:        cfg,
		store:      store,
		hasher:     hasher,
		tokens:     tokens,
		auth:       auth,
		loginIP:    ratelimit.NewMemory(ratelimit.Rule{Max: cfg.LoginIPMax, Window: cfg.LoginIPWindow}),
		loginEmail: ratelimit.NewMemory(ratelimit.Rule{Max: cfg.LoginEmailMax, Window: cfg.LoginEmailWindow}),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	if h.logins == nil {
		h.logins = newLoginCounter(nil)
	}
	return h, nil
}

// Register wires the API routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	required := func(f http.HandlerFunc) http.Handler { return h.auth.RequireIdentity(f) }
	optional := func(f http.HandlerFunc) http.Handler { return h.auth.OptionalIdentity(f) }

	mux.HandleFunc("POST /api/users", h.handleRegister)
	mux.HandleFunc("POST /api/users/login", h.handleLogin)
	mux.Handle("GET /api/user", required(h.handleCurrentUser))
	mux.Handle("PUT /api/user", required(h.handleUpdateUser))

	mux.Handle("GET /api/profiles/{username}", optional(h.handleGetProfile))
	mux.Handle("POST /api/profiles/{username}/follow", required(h.handleFollow))
	mux.Handle("DELETE /api/profiles/{username}/follow", required(h.handleUnfollow))
}

func newLoginCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: "conduit",
		Subsystem: "auth",
		Name:      "login_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})
}

// password policy failures become field messages; anything else is not a caller problem.
func passwordProblem(err error) (string, bool) {
	msg := password.PolicyMessage(err)
	return msg, msg != ""
}
