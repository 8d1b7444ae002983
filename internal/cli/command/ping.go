package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redpipe-go/internal/cli/output"
	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "PING and DBSIZE every connection in one pipeline",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall timeout",
				Value: 5 * time.Second,
			},
		},
		Action: runPing,
	}
}

// PingResult is the outcome for one connection.
type PingResult struct {
	Connection string `json:"connection" yaml:"connection"`
	OK         bool   `json:"ok" yaml:"ok"`
	Reply      string `json:"reply,omitempty" yaml:"reply,omitempty"`
	Keys       int64  `json:"keys" yaml:"keys"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// PingReport is the result of pinging every connection.
type PingReport struct {
	Results []PingResult  `json:"results" yaml:"results"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Failed counts connections that did not answer.
func (r *PingReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK {
			n++
		}
	}
	return n
}

// Table implements output.Tabler.
func (r *PingReport) Table() *output.Table {
	t := &output.Table{Headers: []string{"CONNECTION", "STATUS", "KEYS", "ERROR"}}
	for _, res := range r.Results {
		status := "ok"
		if !res.OK {
			status = "down"
		}
		t.AddRow(res.Connection, status, fmt.Sprint(res.Keys), output.FormatValue(res.Error))
	}
	return t
}

// PingAll queues PING and DBSIZE for every connection in reg on a single
// root pipeline and executes it once. A failing connection does not stop
// the others from reporting.
func PingAll(ctx context.Context, reg *redpipe.Registry) *PingReport {
	type pending struct {
		name string
		ping *redpipe.Future[any]
		size *redpipe.Future[any]
	}

	start := time.Now()
	pipe := redpipe.NewPipeline(redpipe.WithRegistry(reg))
	var all []pending
	for _, name := range reg.Names() {
		p := redpipe.Nested(pipe, name)
		all = append(all, pending{
			name: name,
			ping: redpipe.Do(ctx, p, "PING"),
			size: redpipe.Do(ctx, p, "DBSIZE"),
		})
		_ = p.Execute(ctx)
	}

	// Per-connection failures are read from the futures below.
	_ = pipe.Execute(ctx)

	report := &PingReport{Elapsed: time.Since(start)}
	for _, pd := range all {
		res := PingResult{Connection: pd.name}
		reply, err := pd.ping.Result()
		if err == nil {
			var n any
			n, err = pd.size.Result()
			res.Keys, _ = n.(int64)
		}
		if err != nil {
			res.Error = err.Error()
		} else {
			res.OK = true
			res.Reply = fmt.Sprint(reply)
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func runPing(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	return env.run(c, func(ctx context.Context, reg *redpipe.Registry) error {
		ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
		defer cancel()

		report := PingAll(ctx, reg)
		if err := env.Print(report); err != nil {
			return err
		}
		if n := report.Failed(); n > 0 {
			return fmt.Errorf("%d of %d connections failed", n, len(report.Results))
		}
		return nil
	})
}
