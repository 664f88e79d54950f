package engine

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peersync/peersync/internal/peersdk"
)

// fakePeer is an in-process stand-in for a remote node. It serves the
// peer protocol from a map of path → content and, on a pull
// notification, immediately records the file as present — modeling a
// peer whose own background pull succeeds.
type fakePeer struct {
	ts *httptest.Server

	mu         sync.Mutex
	files      map[string][]byte
	listCalls  int
	fileCalls  int
	syncCalls  []string
	selfPullOK bool
}

func newFakePeer(t *testing.T, files map[string][]byte) *fakePeer {
	t.Helper()

	p := &fakePeer{
		files:      make(map[string][]byte),
		selfPullOK: true,
	}
	for name, content := range files {
		p.files[name] = content
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.listCalls++
		names := make([]string, 0, len(p.files))
		for name := range p.files {
			names = append(names, name)
		}
		sort.Strings(names)
		w.Write([]byte(strings.Join(names, "\n")))
	})
	mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.fileCalls++
		name := r.URL.Query().Get("name")
		content, ok := p.files[name]
		if !ok {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		w.Write(content)
	})
	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		name := r.URL.Query().Get("file")
		p.syncCalls = append(p.syncCalls, name)
		if p.selfPullOK {
			if _, ok := p.files[name]; !ok {
				p.files[name] = []byte("pulled:" + name)
			}
		}
		w.Write([]byte("file download started"))
	})

	p.ts = httptest.NewServer(mux)
	t.Cleanup(p.ts.Close)
	return p
}

// port returns the fake's listen port, which doubles as the group's
// shared port in tests.
func (p *fakePeer) port(t *testing.T) int {
	t.Helper()
	u, err := url.Parse(p.ts.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

func (p *fakePeer) sdk(t *testing.T) *peersdk.Client {
	t.Helper()
	return peersdk.New(p.port(t))
}

func (p *fakePeer) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.files))
	for name := range p.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *fakePeer) notified() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.syncCalls...)
}

func (p *fakePeer) requestCounts() (list, file int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listCalls, p.fileCalls
}

// localhost is the reachable test peer host. unreachableHost is another
// loopback address where nothing listens on the shared port, so
// connections are refused immediately.
const (
	localhost       = "127.0.0.1"
	unreachableHost = "127.0.0.2"
)
