// Package task runs periodic background workers with clean shutdown.
// The settlement observer and the log flush loop both run on a
// Runner.
package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Worker is one iteration of a periodic job. A non-nil error is
// logged and the loop continues; returning a positive duration
// overrides the runner interval for the next wait.
type Worker func(ctx context.Context) (time.Duration, error)

// Runner drives a Worker on a fixed interval until stopped.
type Runner struct {
	name     string
	interval time.Duration
	delay    time.Duration
	worker   Worker
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	stop   chan struct{}
	done   chan struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithInitialDelay makes the runner wait before the first iteration
// instead of firing immediately.
func WithInitialDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// NewRunner creates a runner for the named worker. The logger must
// not be nil.
func NewRunner(name string, interval time.Duration, worker Worker, log *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		name:     name,
		interval: interval,
		worker:   worker,
		log:      log.Named(name),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the loop. Calling Start on a running runner is a
// no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(ctx, r.stop, r.done)
}

// Stop halts the loop. With drain set the in-flight iteration runs to
// completion first; otherwise its context is cancelled. Stop on a
// stopped runner is a no-op.
func (r *Runner) Stop(drain bool) {
	r.mu.Lock()
	cancel, stop, done := r.cancel, r.stop, r.done
	r.cancel, r.stop, r.done = nil, nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	close(stop)
	if !drain {
		cancel()
	}
	<-done
	cancel()
}

func (r *Runner) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	wait := r.delay
	if wait < 0 {
		wait = 0
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		next, err := r.worker(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Warn("worker iteration failed", zap.Error(err))
		}
		select {
		case <-stop:
			return
		default:
		}
		if next <= 0 {
			next = r.interval
		}
		timer.Reset(next)
	}
}
