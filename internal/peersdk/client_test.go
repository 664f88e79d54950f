package peersdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient returns a Client whose well-known port is the httptest
// server's, so calls against host 127.0.0.1 land on the test handler.
func testClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return New(port)
}

func TestListFiles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files", r.URL.Path)
		w.Write([]byte("a.txt\nsub/b.txt\n\n"))
	}))
	defer ts.Close()

	files, err := testClient(t, ts).ListFiles(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, files.Equal(mapset.NewSet("a.txt", "sub/b.txt")))
}

func TestListFilesEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	files, err := testClient(t, ts).ListFiles(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 0, files.Cardinality())
}

func TestListFilesErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := testClient(t, ts).ListFiles(context.Background(), "127.0.0.1")
	assert.Error(t, err)
}

func TestListFilesUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := testClient(t, ts)
	ts.Close()

	_, err := client.ListFiles(context.Background(), "127.0.0.1")
	assert.Error(t, err)
}

func TestFetchFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file", r.URL.Path)
		assert.Equal(t, "sub/b.txt", r.URL.Query().Get("name"))
		w.Write([]byte("hello"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "sub", "b.txt")
	err := testClient(t, ts).FetchFile(context.Background(), "127.0.0.1", "sub/b.txt", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFetchFileNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "file not found", http.StatusNotFound)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "missing.txt")
	err := testClient(t, ts).FetchFile(context.Background(), "127.0.0.1", "missing.txt", dest)

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.NoFileExists(t, dest, "error body must not be left behind")
}

func TestNotifyPull(t *testing.T) {
	var gotFile string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync", r.URL.Path)
		gotFile = r.URL.Query().Get("file")
		w.Write([]byte("file download started"))
	}))
	defer ts.Close()

	err := testClient(t, ts).NotifyPull(context.Background(), "127.0.0.1", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", gotFile)
}

func TestNotifyPullErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	err := testClient(t, ts).NotifyPull(context.Background(), "127.0.0.1", "")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check", r.URL.Path)
		w.Write([]byte("PENDING"))
	}))
	defer ts.Close()

	status, err := testClient(t, ts).Check(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", status)
}
