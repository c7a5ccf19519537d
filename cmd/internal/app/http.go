package app

import (
	"context"
	"net/http"
	"time"

	authapi "conduit/cmd/internal/auth/api"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing store can serve queries.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyzTimeout = 2 * time.Second

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	store Pinger,
	dbEnabled bool,
	gatherer prometheus.Gatherer,
	auth *authapi.Handler,
) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && !dbEnabled {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	if auth != nil {
		auth.Register(mux)
	}
}
