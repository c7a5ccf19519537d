// Package app wires the conduit server runtime: config, logging, storage, the
// credential core and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"conduit/cmd/identity"
	authapi "conduit/cmd/internal/auth/api"
	"conduit/cmd/internal/auth/session"
	"conduit/cmd/internal/ratelimit"
	"conduit/cmd/security/password"
	"conduit/cmd/security/token"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is the conduit server runtime: it owns the store, the metrics registry
// and the HTTP handler chain.
type App struct {
	cfg Config
	log Logger

	store     identity.Store
	dbEnabled bool
	closers   []func()

	reg     *prometheus.Registry
	handler http.Handler
}

// New constructs a fully wired App. On error every resource opened so far is released.
func New(ctx context.Context, cfg Config, log Logger) (a *App, err error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	secret, err := ValidateSecurityConfig(cfg)
	if err != nil {
		return nil, err
	}

	a = &App{cfg: cfg, log: log, reg: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	pcfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	hasher, err := password.NewHasher(pcfg, password.NewPool(pcfg.Pool, a.reg))
	if err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(secret)
	if err != nil {
		return nil, err
	}
	extractor := session.NewExtractor(codec, log)

	authCfg, err := authapi.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	opts := []authapi.HandlerOption{authapi.WithRegisterer(a.reg)}
	if cfg.RedisURL != "" {
		limiters, err := a.redisLoginLimiters(ctx, authCfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, limiters)
	}

	authHandler, err := authapi.NewHandler(log, authCfg, a.store, hasher, codec, extractor, opts...)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, log, cfg, a.store, a.dbEnabled, a.reg, authHandler)
	a.handler = WithRequestLogging(mux, log, newHTTPMetrics(a.reg))

	log.Info("app.ready",
		"db_enabled", a.dbEnabled,
		"redis_enabled", cfg.RedisURL != "",
		"hash_workers", pcfg.Pool.Workers,
	)
	return a, nil
}

// Handler returns the full HTTP handler chain.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// openStore picks Postgres when a database URL is configured, otherwise SQLite.
func (a *App) openStore(ctx context.Context) error {
	if a.cfg.DatabaseURL == "" {
		st, err := identity.OpenSQLite(ctx, a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.store = st
		a.closers = append(a.closers, func() { _ = st.Close() })
		a.log.Info("db.sqlite", "path", a.cfg.SQLitePath)
		return nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	// The app owns the pool; PostgresStore only borrows it.
	a.closers = append(a.closers, pool.Close)

	if err := identity.MigratePostgres(ctx, pool, a.cfg.DBSchema); err != nil {
		return err
	}
	st, err := identity.NewPostgresStore(pool, identity.WithSchema(a.cfg.DBSchema))
	if err != nil {
		return err
	}
	a.store = st
	a.dbEnabled = true
	a.log.Info("db.postgres", "schema", st.Schema())
	return nil
}

func (a *App) redisLoginLimiters(ctx context.Context, cfg authapi.Config) (authapi.HandlerOption, error) {
	rdb, err := ratelimit.NewRedisClient(a.cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	return authapi.WithLoginLimiters(
		ratelimit.NewRedis(rdb, "login_ip", ratelimit.Rule{Max: cfg.LoginIPMax, Window: cfg.LoginIPWindow}),
		ratelimit.NewRedis(rdb, "login_email", ratelimit.Rule{Max: cfg.LoginEmailMax, Window: cfg.LoginEmailWindow}),
	), nil
}

// close releases resources in reverse order of acquisition.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
