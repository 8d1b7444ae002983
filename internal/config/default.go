package config

import "time"

// Default configuration values.
const (
	DefaultConnection = "default"
	DefaultURL        = "redis://127.0.0.1:6379/0"

	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultLogBackend = "slog"

	DefaultMetricsPath = "/metrics"

	DefaultMonitorInterval = 5 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Default returns the default configuration: one local connection.
func Default() *Config {
	return &Config{
		Connections: map[string]ConnectionConfig{
			DefaultConnection: {URL: DefaultURL},
		},
		Log: LogSection{
			Level:   DefaultLogLevel,
			Format:  DefaultLogFormat,
			Backend: DefaultLogBackend,
		},
		Metrics: MetricsSection{
			Path: DefaultMetricsPath,
		},
		Monitor: MonitorSection{
			Interval:        DefaultMonitorInterval,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}
