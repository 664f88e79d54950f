package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/peersync/peersync/internal/fileset"
	"github.com/peersync/peersync/internal/utils"
	"github.com/peersync/peersync/internal/version"
)

// PullFunc fetches one file from the given peer host and records it in
// the local file set. The sync handler calls it on a detached goroutine
// so inbound notifications return immediately.
type PullFunc func(host, name string)

// Handler serves the inbound half of the sync protocol over the shared
// file set. It only reads the set and the directory; all growth goes
// through the pull worker.
type Handler struct {
	root  string
	files *fileset.Set
	pull  PullFunc
}

func NewHandler(root string, files *fileset.Set, pull PullFunc) *Handler {
	return &Handler{
		root:  root,
		files: files,
		pull:  pull,
	}
}

// Index returns the version banner.
func (h *Handler) Index(c *gin.Context) {
	c.String(http.StatusOK, version.Detailed())
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Files returns the local listing, one relative path per line.
func (h *Handler) Files(c *gin.Context) {
	c.String(http.StatusOK, strings.Join(h.files.Paths(), "\n"))
}

// File streams one file's raw bytes.
func (h *Handler) File(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.String(http.StatusBadRequest, "file name required")
		return
	}

	rel, ok := safeRelPath(name)
	if !ok {
		c.String(http.StatusBadRequest, "invalid file name")
		return
	}

	path := filepath.Join(h.root, filepath.FromSlash(rel))
	if !utils.FileExists(path) {
		c.String(http.StatusNotFound, "file not found")
		return
	}
	c.File(path)
}

// Sync handles a pull notification: a peer claims to have a file this
// node lacks. If the file is already known the call is a no-op;
// otherwise a detached worker fetches it from the caller's address.
func (h *Handler) Sync(c *gin.Context) {
	name := c.Query("file")
	if name == "" {
		c.String(http.StatusBadRequest, "file name required")
		return
	}

	rel, ok := safeRelPath(name)
	if !ok {
		c.String(http.StatusBadRequest, "invalid file name")
		return
	}

	if h.files.Contains(rel) {
		c.String(http.StatusOK, "file already exists")
		return
	}

	go h.pull(c.ClientIP(), rel)
	c.String(http.StatusOK, "file download started")
}

// Check is the convergence probe endpoint, reserved for future use.
func (h *Handler) Check(c *gin.Context) {
	c.String(http.StatusOK, "PENDING")
}

// safeRelPath normalizes a wire path and rejects anything that would
// escape the sync root.
func safeRelPath(name string) (string, bool) {
	rel := fileset.Normalize(name)
	if rel == "" || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", false
	}
	return rel, true
}
