package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/redpipe-go/internal/cli/repl"
	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// ShellCommand returns the interactive pipeline shell.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Queue redis commands interactively and send them with exec",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "connection",
				Aliases: []string{"C"},
				Usage:   "Connection to start on",
				Value:   redpipe.DefaultConnection,
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (empty keeps history in memory)",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	reg, err := env.Registry()
	if err != nil {
		return err
	}
	if _, err := reg.Client(c.String("connection")); err != nil {
		return err
	}

	history := repl.NewHistory(c.String("history"))
	if err := history.Load(); err != nil {
		env.Logger.Warn("load shell history", "error", err)
	}

	shell := repl.New(reg, c.String("connection"),
		repl.WithIO(c.App.Reader, env.Out),
		repl.WithHistory(history),
	)
	return shell.Run(c.Context)
}
