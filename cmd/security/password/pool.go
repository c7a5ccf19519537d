package password

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conduit/cmd/internal/apperr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"
)

// Pool runs CPU-bound work on a fixed number of slots.
//
// Waiting for a slot is bounded by the queue timeout and running is bounded by
// the work timeout. Neither wait is unbounded: callers get ErrPoolSaturated or
// ErrHashTimeout (both transient internal errors) instead.
type Pool struct {
	sem          *semaphore.Weighted
	size         int
	queueTimeout time.Duration
	timeout      time.Duration

	inFlight prometheus.Gauge
	rejected *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPool builds a Pool. reg may be nil, in which case metrics are kept but not registered.
func NewPool(cfg PoolConfig, reg prometheus.Registerer) *Pool {
	def := DefaultConfig().Pool
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = def.QueueTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	f := promauto.With(reg)
	return &Pool{
		sem:          semaphore.NewWeighted(int64(cfg.Workers)),
		size:         cfg.Workers,
		queueTimeout: cfg.QueueTimeout,
		timeout:      cfg.Timeout,

		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "conduit",
			Subsystem: "password_pool",
			Name:      "in_flight",
			Help:      "Password hashing jobs currently running.",
		}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "password_pool",
			Name:      "rejected_total",
			Help:      "Password hashing jobs that did not complete, by reason.",
		}, []string{"reason"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conduit",
			Subsystem: "password",
			Name:      "op_duration_seconds",
			Help:      "Wall time of password hash/verify work on the pool.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"op"}),
	}
}

// Size returns the number of concurrent slots.
func (p *Pool) Size() int { return p.size }

// Do runs fn on a pool slot and waits for it, ctx cancellation, or the work timeout.
//
// On timeout or cancellation fn keeps its slot until it returns; the slot is
// never handed out while a derivation is still running.
func (p *Pool) Do(ctx context.Context, op string, fn func() error) error {
	errOp := "password." + op

	qctx, cancelQueue := context.WithTimeout(ctx, p.queueTimeout)
	err := p.sem.Acquire(qctx, 1)
	cancelQueue()
	if err != nil {
		if ctx.Err() != nil {
			p.rejected.WithLabelValues("canceled").Inc()
			return apperr.Transient(errOp, errors.Join(ErrHashTimeout, ctx.Err()))
		}
		p.rejected.WithLabelValues("saturated").Inc()
		return apperr.Transient(errOp, ErrPoolSaturated)
	}

	done := make(chan error, 1)
	p.inFlight.Inc()
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in %s: %v", errOp, r)
			}
			p.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
			p.inFlight.Dec()
			p.sem.Release(1)
		}()
		done <- fn()
	}()

	wctx, cancelWork := context.WithTimeout(ctx, p.timeout)
	defer cancelWork()

	select {
	case err := <-done:
		return err
	case <-wctx.Done():
		reason := "timeout"
		if ctx.Err() != nil {
			reason = "canceled"
		}
		p.rejected.WithLabelValues(reason).Inc()
		return apperr.Transient(errOp, errors.Join(ErrHashTimeout, wctx.Err()))
	}
}
