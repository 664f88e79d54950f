package peersync

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultPort is the well-known port every node in a group shares.
	DefaultPort = 18283

	// DefaultGraceDelay is the post-convergence wait before exit.
	DefaultGraceDelay = 10 * time.Second
)

type Config struct {
	// Dir is the directory kept in sync. Created if missing.
	Dir string
	// Peers are the other nodes' hosts. Empty means nothing to sync.
	Peers []string
	// Port is the shared listen port.
	Port int
	// GraceDelay is the wait after convergence before exiting.
	GraceDelay time.Duration
}

func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.New("sync directory is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.GraceDelay < 0 {
		return fmt.Errorf("invalid grace delay %s", c.GraceDelay)
	}
	for _, p := range c.Peers {
		if strings.TrimSpace(p) == "" {
			return errors.New("peer hosts must not be empty")
		}
	}
	return nil
}

// SplitPeers parses the CLI's comma-separated peer list, dropping empty
// entries so a bare "" means no peers.
func SplitPeers(s string) []string {
	var peers []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			peers = append(peers, p)
		}
	}
	return peers
}
