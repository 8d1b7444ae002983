package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/redpipe-go/internal/cli/output"
	"github.com/yndnr/redpipe-go/internal/telemetry/logger"
	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// errScanLimit stops a scan once --limit keys were collected.
var errScanLimit = errors.New("scan limit reached")

// ScanCommand returns the scan command.
func ScanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "List keys of a keyspace without blocking the server",
		ArgsUsage: "[KEYSPACE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "connection",
				Aliases: []string{"C"},
				Usage:   "Connection name",
				Value:   redpipe.DefaultConnection,
			},
			&cli.StringFlag{
				Name:    "match",
				Aliases: []string{"m"},
				Usage:   "Glob over logical keys",
				Value:   "*",
			},
			&cli.Int64Flag{
				Name:  "count",
				Usage: "SCAN COUNT hint per round trip",
				Value: 100,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Maximum keys per second (0 for unlimited)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Stop after this many keys (0 for all)",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Report progress on stderr",
			},
		},
		Action: runScan,
	}
}

// ScanOptions controls Scan.
type ScanOptions struct {
	Keyspace   string
	Connection string
	Match      string
	Count      int64
	Rate       float64
	Limit      int
	// OnKey is called for every key after throttling.
	OnKey func(key string)
}

// Scan walks the keyspace and returns logical keys. With a positive Rate
// it waits on a token bucket so the scan stays under Rate keys per second.
func Scan(ctx context.Context, reg *redpipe.Registry, opts ScanOptions) ([]string, error) {
	ks := redpipe.String{Keyspace: redpipe.Keyspace{
		Name:       opts.Keyspace,
		Connection: opts.Connection,
		Registry:   reg,
	}}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		burst := int(opts.Count)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}

	var keys []string
	err := ks.Bind(nil).ScanIter(ctx, opts.Match, opts.Count, func(key string) error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		keys = append(keys, key)
		if opts.OnKey != nil {
			opts.OnKey(key)
		}
		if opts.Limit > 0 && len(keys) >= opts.Limit {
			return errScanLimit
		}
		return nil
	})
	if errors.Is(err, errScanLimit) {
		err = nil
	}
	return keys, err
}

// ScanResult is the output of the scan command.
type ScanResult struct {
	Keyspace string   `json:"keyspace" yaml:"keyspace"`
	Keys     []string `json:"keys" yaml:"keys"`
}

// Table implements output.Tabler.
func (r *ScanResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"KEY"}}
	for _, k := range r.Keys {
		t.AddRow(k)
	}
	return t
}

func runScan(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("usage: scan [KEYSPACE]")
	}
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	return env.run(c, func(ctx context.Context, reg *redpipe.Registry) error {
		opts := ScanOptions{
			Keyspace:   c.Args().First(),
			Connection: c.String("connection"),
			Match:      c.String("match"),
			Count:      c.Int64("count"),
			Rate:       c.Float64("rate"),
			Limit:      c.Int("limit"),
		}

		if c.Bool("progress") {
			var total int64
			if client, err := reg.Client(opts.Connection); err == nil {
				total, _ = client.DBSize(ctx).Result()
			}
			bar := output.NewProgress(env.Err, "scanning", total)
			opts.OnKey = func(string) { bar.Add(1) }
			defer bar.Finish()
		}

		ctx = logger.WithConnection(ctx, opts.Connection)
		keys, err := Scan(ctx, reg, opts)
		env.Metrics.AddScanKeys(opts.Keyspace, len(keys))
		logger.L(ctx).Debug("scan finished", "keyspace", opts.Keyspace, "keys", len(keys))
		if err != nil {
			return err
		}
		return env.Print(&ScanResult{Keyspace: opts.Keyspace, Keys: keys})
	})
}
