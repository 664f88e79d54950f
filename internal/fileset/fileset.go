package fileset

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Set holds the relative paths of the files this node knows about. It is
// the unit of comparison between peers: two nodes are in sync when their
// Sets are equal. Entries are only ever added, never removed.
//
// The underlying set is the thread-safe mapset variant, so every
// operation holds the collection's own lock and nothing else. Snapshot
// returns a point-in-time copy so callers never iterate live state.
type Set struct {
	paths mapset.Set[string]
}

func New(paths ...string) *Set {
	s := &Set{paths: mapset.NewSet[string]()}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Normalize converts a path to the canonical wire form: forward slashes,
// cleaned, no leading "./".
func Normalize(p string) string {
	p = filepath.ToSlash(p)
	return strings.TrimPrefix(path.Clean(p), "./")
}

func (s *Set) Add(p string) {
	s.paths.Add(Normalize(p))
}

func (s *Set) Contains(p string) bool {
	return s.paths.Contains(Normalize(p))
}

func (s *Set) Len() int {
	return s.paths.Cardinality()
}

// Snapshot returns an independent copy of the current contents.
func (s *Set) Snapshot() mapset.Set[string] {
	return s.paths.Clone()
}

// Equals compares against another set of paths as unordered string sets.
func (s *Set) Equals(other mapset.Set[string]) bool {
	return s.paths.Equal(other)
}

// Diff compares a remote listing against the local snapshot and returns
// the paths to pull (remote has, local lacks) and to push (local has,
// remote lacks).
func (s *Set) Diff(remote mapset.Set[string]) (toPull, toPush mapset.Set[string]) {
	local := s.Snapshot()
	return remote.Difference(local), local.Difference(remote)
}

// Paths returns the contents sorted, for stable listings on the wire.
func (s *Set) Paths() []string {
	out := s.paths.ToSlice()
	sort.Strings(out)
	return out
}
