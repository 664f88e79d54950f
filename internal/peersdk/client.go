package peersdk

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/imroc/req/v3"

	"github.com/peersync/peersync/internal/fileset"
	"github.com/peersync/peersync/internal/utils"
	"github.com/peersync/peersync/internal/version"
)

const (
	routeFiles = "/files"
	routeFile  = "/file"
	routeSync  = "/sync"
	routeCheck = "/check"
)

// Per-call deadlines. Every outbound call is bounded so one unreachable
// peer cannot stall a round beyond its own budget.
const (
	ListTimeout   = 30 * time.Second
	FetchTimeout  = 60 * time.Second
	NotifyTimeout = 30 * time.Second
	ProbeTimeout  = 5 * time.Second
)

// Client is the outbound half of the sync transport: list a peer's
// files, fetch one file, and ask a peer to pull one file. All peers
// share a single well-known port.
type Client struct {
	http *req.Client
	port int
}

func New(port int) *Client {
	c := req.C().
		SetUserAgent(version.UserAgent()).
		SetTimeout(FetchTimeout)
	return &Client{http: c, port: port}
}

func (c *Client) baseURL(host string) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.port))
}

// ListFiles fetches the peer's file listing with the reconciliation
// deadline.
func (c *Client) ListFiles(ctx context.Context, host string) (mapset.Set[string], error) {
	ctx, cancel := context.WithTimeout(ctx, ListTimeout)
	defer cancel()
	return c.listFiles(ctx, host)
}

// Probe fetches the peer's file listing with the short convergence
// deadline. The payload is the same as ListFiles; only the patience
// differs.
func (c *Client) Probe(ctx context.Context, host string) (mapset.Set[string], error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	return c.listFiles(ctx, host)
}

func (c *Client) listFiles(ctx context.Context, host string) (mapset.Set[string], error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL(host) + routeFiles)
	if err != nil {
		return nil, fmt.Errorf("list files %s: %w", host, err)
	}
	if res.IsErrorState() {
		return nil, fmt.Errorf("list files %s: status %d", host, res.GetStatusCode())
	}

	files := mapset.NewSet[string]()
	for _, line := range strings.Split(res.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files.Add(fileset.Normalize(line))
		}
	}
	return files, nil
}

// FetchFile downloads one file from the peer straight to destPath,
// creating parent directories. On a non-success status the partial
// output is removed, since the error body lands in the output file.
func (c *Client) FetchFile(ctx context.Context, host, name, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	if err := utils.EnsureParent(destPath); err != nil {
		return fmt.Errorf("fetch %q from %s: %w", name, host, err)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		DisableAutoReadResponse().
		SetOutputFile(destPath).
		Get(c.baseURL(host) + routeFile)
	if err != nil {
		return fmt.Errorf("fetch %q from %s: %w", name, host, err)
	}
	if res.IsErrorState() {
		os.Remove(destPath)
		if res.GetStatusCode() == http.StatusNotFound {
			return fmt.Errorf("fetch %q from %s: %w", name, host, ErrFileNotFound)
		}
		return fmt.Errorf("fetch %q from %s: status %d", name, host, res.GetStatusCode())
	}
	return nil
}

// NotifyPull asks the peer to pull one file from this node. Best effort:
// the caller never learns whether the peer's download succeeded, only
// whether the notification was accepted.
func (c *Client) NotifyPull(ctx context.Context, host, name string) error {
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("file", name).
		Get(c.baseURL(host) + routeSync)
	if err != nil {
		return fmt.Errorf("notify %s about %q: %w", host, name, err)
	}
	if res.IsErrorState() {
		return fmt.Errorf("notify %s about %q: status %d", host, name, res.GetStatusCode())
	}
	return nil
}

// Check reads the peer's convergence probe sentinel. Reserved for future
// use, mirrored here so the endpoint has a client.
func (c *Client) Check(ctx context.Context, host string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL(host) + routeCheck)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", host, err)
	}
	if res.IsErrorState() {
		return "", fmt.Errorf("check %s: status %d", host, res.GetStatusCode())
	}
	return res.String(), nil
}
