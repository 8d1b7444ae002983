package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redpipe-go/internal/cli/connection"
	"github.com/yndnr/redpipe-go/internal/cli/output"
	"github.com/yndnr/redpipe-go/internal/config"
	"github.com/yndnr/redpipe-go/internal/infra/buildinfo"
	"github.com/yndnr/redpipe-go/internal/infra/confloader"
	"github.com/yndnr/redpipe-go/internal/telemetry/logger"
	"github.com/yndnr/redpipe-go/internal/telemetry/metric"
	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "redpipectl",
		Usage:                "Inspect and operate redis through composable pipelines",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			PingCommand(),
			StructCommand(),
			ScanCommand(),
			ScriptCommand(),
			ShellCommand(),
			MonitorCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: before,
		After:  after,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML)",
			EnvVars: []string{"REDPIPE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log at debug level",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config  string
	Output  string
	Wide    bool
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
}

// flagOverrides maps global flags onto configuration keys.
func (g *GlobalFlags) flagOverrides() map[string]any {
	flags := map[string]any{}
	if g.Verbose {
		flags["log.level"] = "debug"
	}
	return flags
}

// Env is the state shared by one redpipectl run.
type Env struct {
	Config  *config.Config
	Loader  *confloader.Loader
	Logger  logger.Logger
	Metrics *metric.Registry
	Format  output.Format
	Wide    bool
	Out     io.Writer
	Err     io.Writer

	manager  *connection.Manager
	openOnce sync.Once
	openErr  error
}

func before(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}

	cfg, loader, err := config.Load(flags.Config, flags.flagOverrides())
	if err != nil {
		return err
	}

	errOut := c.App.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Backend: cfg.Log.Backend,
		Output:  errOut,
	})
	if err != nil {
		return err
	}
	logger.SetDefault(log)
	redpipe.EnableStats(cfg.Stats.Enabled)

	metrics := metric.NewRegistry()
	reg := redpipe.NewRegistry()
	reg.SetLogger(log)
	reg.SetObserver(metrics)

	c.App.Metadata[envKey] = &Env{
		Config:  cfg,
		Loader:  loader,
		Logger:  log,
		Metrics: metrics,
		Format:  format,
		Wide:    flags.Wide,
		Out:     out,
		Err:     errOut,
		manager: connection.NewManager(reg),
	}
	log.Debug("configuration loaded", "file", loader.FilePath(), "connections", len(cfg.Connections))
	return nil
}

func after(c *cli.Context) error {
	env, ok := c.App.Metadata[envKey].(*Env)
	if !ok {
		return nil
	}
	err := env.manager.Close()
	_ = logger.Sync(env.Logger)
	return err
}

// GetEnv retrieves the run state from context.
func GetEnv(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env, nil
	}
	return nil, errors.New("redpipectl is not initialized")
}

// Registry opens every configured connection on first use and returns the
// registry they are bound in.
func (e *Env) Registry() (*redpipe.Registry, error) {
	e.openOnce.Do(func() {
		e.openErr = e.manager.Open(e.Config)
	})
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.manager.Registry(), nil
}

// Print renders data in the selected output format.
func (e *Env) Print(data any) error {
	return output.NewFormatter(e.Format, e.Wide).Format(e.Out, data)
}

// run executes fn with a logger-carrying context, wrapped in future
// accounting when stats are enabled.
func (e *Env) run(c *cli.Context, fn func(ctx context.Context, reg *redpipe.Registry) error) error {
	reg, err := e.Registry()
	if err != nil {
		return err
	}
	name := c.Command.FullName()
	ctx := logger.WithLogger(c.Context, e.Logger)
	ctx = logger.WithCommand(ctx, name)

	return redpipe.LogStats(ctx, name, e.Logger, os.Getpid(), func(ctx context.Context) error {
		return fn(ctx, reg)
	})
}

// PrintError prints an error message to stderr.
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
}
