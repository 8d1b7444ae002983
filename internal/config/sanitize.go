package config

import (
	"maps"
	"strings"

	"github.com/yndnr/redpipe-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with passwords masked, for display
// and logging.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	sanitized.Connections = maps.Clone(cfg.Connections)

	for name, c := range sanitized.Connections {
		if c.Password != "" {
			c.Password = maskSecret(c.Password)
		}
		c.URL = logger.RedactURL(c.URL)
		c.Addrs = append([]string(nil), c.Addrs...)
		sanitized.Connections[name] = c
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
