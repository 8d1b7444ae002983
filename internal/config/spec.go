package config

import "time"

// Config is the root configuration for redpipectl.
type Config struct {
	Connections map[string]ConnectionConfig `koanf:"connections" json:"connections" yaml:"connections"`
	Log         LogSection                  `koanf:"log" json:"log" yaml:"log"`
	Stats       StatsSection                `koanf:"stats" json:"stats" yaml:"stats"`
	Metrics     MetricsSection              `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Monitor     MonitorSection              `koanf:"monitor" json:"monitor" yaml:"monitor"`
}

// ConnectionConfig describes one redis deployment. Set either URL or Addrs.
type ConnectionConfig struct {
	// URL is a redis:// or rediss:// URL for a single node.
	URL string `koanf:"url" json:"url,omitempty" yaml:"url,omitempty"`

	// Addrs lists host:port seeds. With Cluster set they are cluster seeds,
	// otherwise only the first is used.
	Addrs   []string `koanf:"addrs" json:"addrs,omitempty" yaml:"addrs,omitempty"`
	Cluster bool     `koanf:"cluster" json:"cluster,omitempty" yaml:"cluster,omitempty"`

	Username string `koanf:"username" json:"username,omitempty" yaml:"username,omitempty"`
	Password string `koanf:"password" json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `koanf:"db" json:"db,omitempty" yaml:"db,omitempty"`

	// Transaction wraps every round trip on this connection in MULTI/EXEC.
	Transaction bool `koanf:"transaction" json:"transaction,omitempty" yaml:"transaction,omitempty"`

	PoolSize    int           `koanf:"pool_size" json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
	DialTimeout time.Duration `koanf:"dial_timeout" json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
	ReadTimeout time.Duration `koanf:"read_timeout" json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`

	TLS TLSSection `koanf:"tls" json:"tls,omitzero" yaml:"tls,omitempty"`
}

// TLSSection configures TLS for a connection. A rediss:// URL turns TLS on
// by itself; these settings refine it.
type TLSSection struct {
	Enabled            bool   `koanf:"enabled" json:"enabled,omitempty" yaml:"enabled,omitempty"`
	CAFile             string `koanf:"ca_file" json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
	CertFile           string `koanf:"cert_file" json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile            string `koanf:"key_file" json:"key_file,omitempty" yaml:"key_file,omitempty"`
	ServerName         string `koanf:"server_name" json:"server_name,omitempty" yaml:"server_name,omitempty"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify" json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
}

// IsSet reports whether any TLS setting is present.
func (t TLSSection) IsSet() bool {
	return t.Enabled || t.CAFile != "" || t.CertFile != "" || t.KeyFile != "" ||
		t.ServerName != "" || t.InsecureSkipVerify
}

// LogSection configures logging.
type LogSection struct {
	Level   string `koanf:"level" json:"level" yaml:"level"`
	Format  string `koanf:"format" json:"format" yaml:"format"`
	Backend string `koanf:"backend" json:"backend" yaml:"backend"`
}

// StatsSection toggles future consumption accounting.
type StatsSection struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`
}

// MetricsSection configures the Prometheus endpoint used by monitor.
type MetricsSection struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`
	Path string `koanf:"path" json:"path" yaml:"path"`
}

// MonitorSection configures the monitor command.
type MonitorSection struct {
	Interval        time.Duration `koanf:"interval" json:"interval" yaml:"interval"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}
