package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redpipe-go/internal/cli/output"
	"github.com/yndnr/redpipe-go/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"cfg"},
		Usage:   "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the merged configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	sanitized := config.Sanitize(env.Config)
	// Nested sections do not fit a table.
	if env.Format == output.FormatTable {
		return output.Print(env.Out, output.FormatYAML, sanitized)
	}
	return env.Print(sanitized)
}

// ValidateResult reports a successful validation.
type ValidateResult struct {
	File        string `json:"file" yaml:"file"`
	Valid       bool   `json:"valid" yaml:"valid"`
	Connections int    `json:"connections" yaml:"connections"`
}

func configValidate(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	path := c.Args().First()
	if path == "" {
		path = env.Loader.FilePath()
	}
	if path == "" {
		return fmt.Errorf("usage: config validate FILE (or pass --config)")
	}

	cfg, _, err := config.Load(path, nil)
	if err != nil {
		return err
	}
	return env.Print(ValidateResult{File: path, Valid: true, Connections: len(cfg.Connections)})
}
