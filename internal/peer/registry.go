package peer

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

// Registry holds the peer hosts configured at startup plus the set of
// hosts marked unreachable. The host list is fixed for the lifetime of
// the process; the ignored set only grows — there is no un-ignore path.
//
// The ignored set has its own lock (inside mapset), independent of the
// file set's, so no code path ever holds both collections' locks.
type Registry struct {
	hosts   []string
	ignored mapset.Set[string]
}

func NewRegistry(hosts []string) *Registry {
	return &Registry{
		hosts:   append([]string(nil), hosts...),
		ignored: mapset.NewSet[string](),
	}
}

// Hosts returns a copy of the configured peer hosts.
func (r *Registry) Hosts() []string {
	return append([]string(nil), r.hosts...)
}

// Count is the total number of configured peers, ignored or not.
func (r *Registry) Count() int {
	return len(r.hosts)
}

// Ignore permanently marks a host as unreachable. Only the convergence
// checker calls this; ordinary reconciliation failures never do.
func (r *Registry) Ignore(host string) {
	if r.ignored.Add(host) {
		slog.Info("ignoring unreachable peer", "host", host)
	}
}

func (r *Registry) IsIgnored(host string) bool {
	return r.ignored.Contains(host)
}

func (r *Registry) IgnoredCount() int {
	return r.ignored.Cardinality()
}
