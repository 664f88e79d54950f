package peersync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/peersync/peersync/internal/engine"
	"github.com/peersync/peersync/internal/fileset"
	"github.com/peersync/peersync/internal/peer"
	"github.com/peersync/peersync/internal/peersdk"
	"github.com/peersync/peersync/internal/server"
	"github.com/peersync/peersync/internal/utils"
)

const (
	// warmupDelay gives the listener time to come up before the first
	// round, so peers probing back right away are not refused.
	warmupDelay = 1 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Daemon wires the scanner, the sync server and the coordinator into
// one process. The file set and the ignored set are created here once
// and shared by every worker; each has its own independent lock.
type Daemon struct {
	cfg      *Config
	root     string
	files    *fileset.Set
	registry *peer.Registry
	server   *server.Server
	coord    *engine.Coordinator
}

func New(cfg *Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := utils.ResolvePath(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("create sync dir: %w", err)
	}

	// The startup scan is the only time disk contents are trusted into
	// the set; everything added later comes from successful pulls.
	files, err := fileset.Scan(root)
	if err != nil {
		return nil, err
	}

	registry := peer.NewRegistry(cfg.Peers)
	sdk := peersdk.New(cfg.Port)
	reconciler := engine.NewReconciler(root, files, sdk)
	checker := engine.NewChecker(files, registry, sdk)
	coord := engine.NewCoordinator(engine.CoordinatorConfig{
		MaxAttempts: engine.DefaultMaxAttempts,
		RetryDelay:  engine.DefaultRetryDelay,
		GraceDelay:  cfg.GraceDelay,
	}, registry, reconciler, checker)

	// Inbound notifications spawn fire-and-forget pulls. They outlive
	// the request and carry no cancellation, only the SDK's own
	// deadlines, so they run off the background context.
	pull := func(host, name string) {
		if files.Contains(name) {
			return
		}
		if err := reconciler.PullFile(context.Background(), host, name); err != nil {
			slog.Error("notified pull failed", "host", host, "name", name, "error", err)
		}
	}

	srv := server.New(cfg.Port, server.NewHandler(root, files, pull))

	return &Daemon{
		cfg:      cfg,
		root:     root,
		files:    files,
		registry: registry,
		server:   srv,
		coord:    coord,
	}, nil
}

// Files exposes the shared file set, mainly for tests.
func (d *Daemon) Files() *fileset.Set {
	return d.files
}

// Start serves the sync endpoints and runs the retry rounds until the
// group converges, attempts run out, or ctx ends. Exhaustion is not an
// error: it is logged and the process exits normally, the outcome
// visible in the logs only.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("peersync start", "dir", d.root, "port", d.cfg.Port, "peers", d.registry.Count())
	slog.Info("local files", "count", d.files.Len())

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.server.Start()
	}()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.server.Stop(shutdownCtx); err != nil {
			slog.Error("http server shutdown", "error", err)
		}
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		stop()
		return ctx.Err()
	case <-time.After(warmupDelay):
	}

	state, err := d.coord.Run(ctx)
	slog.Info("sync finished", "state", state.String())
	stop()

	return err
}
