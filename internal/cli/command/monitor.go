package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redpipe-go/internal/config"
	"github.com/yndnr/redpipe-go/internal/infra/confloader"
	"github.com/yndnr/redpipe-go/internal/infra/shutdown"
	"github.com/yndnr/redpipe-go/internal/telemetry/logger"
	"github.com/yndnr/redpipe-go/internal/telemetry/metric"
	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// MonitorCommand returns the monitor command.
func MonitorCommand() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Ping connections periodically and serve /metrics",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Time between checks (defaults to monitor.interval)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (defaults to metrics.addr)",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Stop after this many checks (0 runs until interrupted)",
			},
		},
		Action: runMonitor,
	}
}

// Monitor runs periodic health checks until its context ends or Count
// checks completed.
type Monitor struct {
	Registry *redpipe.Registry
	Interval time.Duration
	Count    int
	Logger   logger.Logger
	// OnReport receives every check.
	OnReport func(*PingReport)
}

// Run blocks until ctx is done or Count checks ran.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		report := PingAll(ctx, m.Registry)
		if failed := report.Failed(); failed > 0 {
			for _, res := range report.Results {
				if !res.OK {
					m.Logger.Warn("connection down", "connection", res.Connection, "error", res.Error)
				}
			}
		} else {
			m.Logger.Debug("all connections up", "connections", len(report.Results), "elapsed", report.Elapsed)
		}
		if m.OnReport != nil {
			m.OnReport(report)
		}

		if m.Count > 0 && n >= m.Count {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// serveMetrics starts an HTTP server for reg on addr and returns it with
// the bound address.
func serveMetrics(addr, path string, reg *metric.Registry, log logger.Logger) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", err
	}

	mux := http.NewServeMux()
	mux.Handle(path, reg.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String(), "path", path)
	return srv, ln.Addr().String(), nil
}

// watchConfig reloads the configuration file on change and applies the new
// log level. Connections are not rebuilt.
func watchConfig(ctx context.Context, loader *confloader.Loader, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Watch(loader.FilePath()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := config.Reload(loader)
		if err != nil {
			log.Warn("configuration reload rejected", "file", path, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("configuration reloaded", "file", path, "log_level", cfg.Log.Level)
	})
	w.StartAsync(ctx)
	return w, nil
}

func runMonitor(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	reg, err := env.Registry()
	if err != nil {
		return err
	}

	interval := c.Duration("interval")
	if interval <= 0 {
		interval = env.Config.Monitor.Interval
	}
	if interval <= 0 {
		interval = config.DefaultMonitorInterval
	}

	log := env.Logger.With("command", "monitor")
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	timeout := env.Config.Monitor.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	handler := shutdown.NewHandler(timeout)
	loopDone := make(chan struct{})
	handler.OnShutdown("monitor loop", func(hctx context.Context) error {
		cancel()
		select {
		case <-loopDone:
			return nil
		case <-hctx.Done():
			return hctx.Err()
		}
	})

	addr := c.String("metrics-addr")
	if addr == "" {
		addr = env.Config.Metrics.Addr
	}
	if addr != "" {
		env.Metrics.MustRegister(metric.NewPoolCollector(reg))
		path := env.Config.Metrics.Path
		if path == "" {
			path = config.DefaultMetricsPath
		}
		srv, _, err := serveMetrics(addr, path, env.Metrics, log)
		if err != nil {
			return err
		}
		handler.OnShutdown("metrics server", srv.Shutdown)
	}

	if n := env.manager.WatchCertificates(ctx); n > 0 {
		log.Info("watching client certificates", "count", n)
	}

	if env.Loader.FilePath() != "" {
		w, err := watchConfig(ctx, env.Loader, log)
		if err != nil {
			return err
		}
		handler.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	}

	m := &Monitor{
		Registry: reg,
		Interval: interval,
		Count:    c.Int("count"),
		Logger:   log,
		OnReport: func(r *PingReport) {
			if err := env.Print(r); err != nil {
				log.Warn("print report", "error", err)
			}
		},
	}

	go func() {
		defer close(loopDone)
		m.Run(ctx)
		handler.Trigger()
	}()

	log.Info("monitor started", "interval", interval, "connections", len(reg.Names()))
	err = handler.Wait(c.Context)
	log.Info("monitor stopped")
	return err
}
