package config

import (
	"fmt"

	"github.com/yndnr/redpipe-go/internal/infra/confloader"
)

// Load builds a Config from defaults, the optional file at path, REDPIPE_
// environment variables and flags, then verifies it.
//
// A file that defines connections replaces the default connection rather
// than merging with it.
func Load(path string, flags map[string]any) (*Config, *confloader.Loader, error) {
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithFlags(flags),
	)
	cfg, err := Reload(l)
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

// Reload re-reads every source of l into a fresh default Config.
func Reload(l *confloader.Loader) (*Config, error) {
	cfg := Default()
	if err := l.Reload(cfg); err != nil {
		return nil, err
	}

	if l.Get("connections") != nil && l.Get("connections."+DefaultConnection) == nil {
		delete(cfg.Connections, DefaultConnection)
	}
	// A partially configured default connection keeps the default URL.
	if c, ok := cfg.Connections[DefaultConnection]; ok && c.URL == "" && len(c.Addrs) == 0 {
		c.URL = DefaultURL
		cfg.Connections[DefaultConnection] = c
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
