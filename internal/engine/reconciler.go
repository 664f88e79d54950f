package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"

	"github.com/peersync/peersync/internal/fileset"
	"github.com/peersync/peersync/internal/peersdk"
)

// Reconciler runs the per-peer half of a sync round: list the peer's
// files, diff both ways against the local set, pull what is missing
// locally and notify the peer about what it is missing.
type Reconciler struct {
	root  string
	files *fileset.Set
	sdk   *peersdk.Client
}

func NewReconciler(root string, files *fileset.Set, sdk *peersdk.Client) *Reconciler {
	return &Reconciler{
		root:  root,
		files: files,
		sdk:   sdk,
	}
}

// SyncPeer reconciles against one peer. Every failure is absorbed here:
// a peer that cannot be listed simply contributes nothing this round
// and is retried next round — it is never marked ignored from this
// path. A failed pull skips that file only; a failed notify is logged
// and forgotten.
func (r *Reconciler) SyncPeer(ctx context.Context, host string) {
	slog.Info("sync peer start", "host", host)

	remote, err := r.sdk.ListFiles(ctx, host)
	if err != nil {
		slog.Error("sync peer list failed", "host", host, "error", err)
		return
	}

	toPull, toPush := r.files.Diff(remote)
	slog.Info("sync peer diff", "host", host, "pull", toPull.Cardinality(), "push", toPush.Cardinality())

	for _, name := range sorted(toPull) {
		if err := r.PullFile(ctx, host, name); err != nil {
			slog.Error("pull failed", "host", host, "name", name, "error", err)
		}
	}

	for _, name := range sorted(toPush) {
		if err := r.sdk.NotifyPull(ctx, host, name); err != nil {
			slog.Error("notify failed", "host", host, "name", name, "error", err)
		}
	}

	slog.Info("sync peer done", "host", host)
}

// PullFile fetches one file from host into the sync root and records it
// in the local set. Shared by the round workers and the inbound
// notification worker; both follow the same fetch-then-record contract.
func (r *Reconciler) PullFile(ctx context.Context, host, name string) error {
	dest := filepath.Join(r.root, filepath.FromSlash(name))
	if err := r.sdk.FetchFile(ctx, host, name, dest); err != nil {
		return err
	}
	r.files.Add(name)

	size := "unknown"
	if fi, err := os.Stat(dest); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	slog.Info("pulled file", "host", host, "name", name, "size", size)
	return nil
}

func sorted(s mapset.Set[string]) []string {
	out := s.ToSlice()
	sort.Strings(out)
	return out
}
