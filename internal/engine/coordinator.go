package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/peersync/peersync/internal/peer"
)

// State is the coordinator's position in its retry machine.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateConverged
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 3 * time.Second
	DefaultGraceDelay  = 10 * time.Second
)

type CoordinatorConfig struct {
	// MaxAttempts bounds the number of full reconciliation rounds.
	MaxAttempts int
	// RetryDelay is the fixed sleep between failed rounds. No backoff.
	RetryDelay time.Duration
	// GraceDelay is the fixed wait after convergence, giving peers time
	// to finish their own checks before this node goes away.
	GraceDelay time.Duration
}

func (c *CoordinatorConfig) withDefaults() CoordinatorConfig {
	out := *c
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = DefaultMaxAttempts
	}
	return out
}

// Coordinator drives bounded retry rounds: fan reconciliation out over
// every peer concurrently, join, check convergence, then stop or sleep
// and go again.
type Coordinator struct {
	cfg        CoordinatorConfig
	registry   *peer.Registry
	reconciler *Reconciler
	checker    *Checker

	mu    sync.Mutex
	state State
}

func NewCoordinator(cfg CoordinatorConfig, registry *peer.Registry, reconciler *Reconciler, checker *Checker) *Coordinator {
	return &Coordinator{
		cfg:        cfg.withDefaults(),
		registry:   registry,
		reconciler: reconciler,
		checker:    checker,
		state:      StateIdle,
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run executes rounds until the group converges or the attempt budget
// runs out, and returns the terminal state. An error is returned only
// when the context ends the run early.
//
// With no peers configured there is no one to sync with, so the run is
// trivially converged and returns without sleeping.
func (c *Coordinator) Run(ctx context.Context) (State, error) {
	if c.registry.Count() == 0 {
		slog.Info("no peers configured, nothing to sync")
		c.setState(StateConverged)
		return StateConverged, nil
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		c.setState(StateRunning)
		slog.Info("sync round start", "attempt", attempt, "max", c.cfg.MaxAttempts)

		// Reconciliation is embarrassingly parallel across peers. The
		// round is a barrier: it completes only when every peer's task
		// has returned, but no task failure aborts the others. Ignored
		// peers still take part; ignoring only bears on convergence.
		g, gctx := errgroup.WithContext(ctx)
		for _, host := range c.registry.Hosts() {
			g.Go(func() error {
				c.reconciler.SyncPeer(gctx, host)
				return nil
			})
		}
		g.Wait()

		if err := ctx.Err(); err != nil {
			return c.State(), err
		}

		if c.checker.Converged(ctx) {
			c.setState(StateConverged)
			slog.Info("all peers in sync, waiting before exit", "grace", c.cfg.GraceDelay)
			if err := sleepCtx(ctx, c.cfg.GraceDelay); err != nil {
				return StateConverged, err
			}
			return StateConverged, nil
		}

		if attempt == c.cfg.MaxAttempts {
			break
		}

		slog.Info("sync incomplete, retrying", "delay", c.cfg.RetryDelay)
		if err := sleepCtx(ctx, c.cfg.RetryDelay); err != nil {
			return StateRunning, err
		}
	}

	c.setState(StateExhausted)
	slog.Warn("sync attempts exhausted", "attempts", c.cfg.MaxAttempts)
	return StateExhausted, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
