package command

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// ScriptCommand returns the script subcommand group.
func ScriptCommand() *cli.Command {
	return &cli.Command{
		Name:  "script",
		Usage: "Lua script management",
		Subcommands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Load a script and print its SHA1",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "connection",
						Aliases: []string{"C"},
						Usage:   "Connection name",
						Value:   redpipe.DefaultConnection,
					},
				},
				Action: scriptLoad,
			},
		},
	}
}

// ScriptResult reports a loaded script.
type ScriptResult struct {
	File       string `json:"file" yaml:"file"`
	Connection string `json:"connection" yaml:"connection"`
	SHA        string `json:"sha" yaml:"sha"`
}

func scriptLoad(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: script load FILE")
	}
	path := c.Args().First()
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	return env.run(c, func(ctx context.Context, reg *redpipe.Registry) error {
		conn := c.String("connection")
		s, err := reg.RegisterSmartScript(ctx, conn, string(code), nil)
		if err != nil {
			return fmt.Errorf("load script: %w", err)
		}
		return env.Print(ScriptResult{File: path, Connection: conn, SHA: s.SHA})
	})
}
