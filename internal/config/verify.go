package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"sort"
	"strings"
)

var (
	validLevels   = []string{"debug", "info", "warn", "warning", "error"}
	validFormats  = []string{"json", "text"}
	validBackends = []string{"slog", "zap"}
	validSchemes  = []string{"redis", "rediss", "unix"}
)

// Verify validates the configuration. Connections are checked in name order
// so the first reported error is stable.
func Verify(cfg *Config) error {
	if len(cfg.Connections) == 0 {
		return errors.New("at least one connection is required")
	}

	names := make([]string, 0, len(cfg.Connections))
	for name := range cfg.Connections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := verifyConnection(cfg.Connections[name]); err != nil {
			return fmt.Errorf("connections.%s: %w", name, err)
		}
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	if cfg.Monitor.Interval < 0 {
		return errors.New("monitor.interval must not be negative")
	}
	return nil
}

func verifyConnection(c ConnectionConfig) error {
	switch {
	case c.URL == "" && len(c.Addrs) == 0:
		return errors.New("one of url or addrs is required")
	case c.URL != "" && len(c.Addrs) > 0:
		return errors.New("url and addrs are mutually exclusive")
	case c.URL != "" && c.Cluster:
		return errors.New("cluster requires addrs")
	}

	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}
		if !slices.Contains(validSchemes, strings.ToLower(u.Scheme)) {
			return fmt.Errorf("unsupported url scheme %q", u.Scheme)
		}
	}
	for _, addr := range c.Addrs {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid addr %q: %w", addr, err)
		}
	}

	if c.DB < 0 {
		return errors.New("db must not be negative")
	}
	if c.Cluster && c.DB != 0 {
		return errors.New("cluster connections only support db 0")
	}
	if c.PoolSize < 0 {
		return errors.New("pool_size must not be negative")
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return errors.New("tls.cert_file and tls.key_file must be set together")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if cfg.Level != "" && !slices.Contains(validLevels, strings.ToLower(cfg.Level)) {
		return fmt.Errorf("log.level %q is not one of %v", cfg.Level, validLevels)
	}
	if cfg.Format != "" && !slices.Contains(validFormats, cfg.Format) {
		return fmt.Errorf("log.format %q is not one of %v", cfg.Format, validFormats)
	}
	if cfg.Backend != "" && !slices.Contains(validBackends, cfg.Backend) {
		return fmt.Errorf("log.backend %q is not one of %v", cfg.Backend, validBackends)
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr %q: %w", cfg.Addr, err)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}
