package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redpipe-go/internal/cli/output"
	"github.com/yndnr/redpipe-go/internal/telemetry/logger"
	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// StructCommand returns the struct subcommand group.
func StructCommand() *cli.Command {
	typeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "connection",
			Aliases: []string{"C"},
			Usage:   "Connection name",
			Value:   redpipe.DefaultConnection,
		},
		&cli.StringFlag{
			Name:  "key-name",
			Usage: "Name of the primary key field",
			Value: redpipe.DefaultKeyName,
		},
	}

	return &cli.Command{
		Name:    "struct",
		Aliases: []string{"st"},
		Usage:   "Read and write hash-backed records",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a record",
				ArgsUsage: "TYPE KEY",
				Flags: append([]cli.Flag{
					&cli.StringSliceFlag{
						Name:    "field",
						Aliases: []string{"f"},
						Usage:   "Only load these fields",
					},
				}, typeFlags...),
				Action: structShow,
			},
			{
				Name:      "set",
				Usage:     "Set fields on a record",
				ArgsUsage: "TYPE KEY FIELD=VALUE...",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "nx",
						Usage: "Only set fields that do not exist",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Expire the record after this long",
					},
				}, typeFlags...),
				Action: structSet,
			},
			{
				Name:      "incr",
				Usage:     "Increment an integer field",
				ArgsUsage: "TYPE KEY FIELD",
				Flags: append([]cli.Flag{
					&cli.Int64Flag{
						Name:  "by",
						Usage: "Amount (negative to decrement)",
						Value: 1,
					},
				}, typeFlags...),
				Action: structIncr,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete records",
				ArgsUsage: "TYPE KEY...",
				Flags:     typeFlags,
				Action:    structDelete,
			},
		},
	}
}

func structType(c *cli.Context, reg *redpipe.Registry, name string) *redpipe.StructType {
	return &redpipe.StructType{
		Name:       name,
		Connection: c.String("connection"),
		KeyName:    c.String("key-name"),
		TTL:        c.Duration("ttl"),
		Registry:   reg,
	}
}

// StructView renders a record as field/value rows.
type StructView struct {
	s *redpipe.Struct
}

// Table implements output.Tabler.
func (v StructView) Table() *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	for _, it := range v.s.Items() {
		t.AddRow(it.Field, output.FormatValue(it.Value))
	}
	return t
}

// MarshalJSON renders the record's fields.
func (v StructView) MarshalJSON() ([]byte, error) {
	return v.s.MarshalJSON()
}

// MarshalYAML renders the record's fields.
func (v StructView) MarshalYAML() (any, error) {
	return v.s.Map(), nil
}

func structShow(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: struct show TYPE KEY")
	}
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	return env.run(c, func(ctx context.Context, reg *redpipe.Registry) error {
		t := structType(c, reg, c.Args().Get(0))
		sel := redpipe.SelectAll
		if fields := c.StringSlice("field"); len(fields) > 0 {
			sel = redpipe.SelectFields(fields...)
		}

		s, err := t.New(ctx, c.Args().Get(1), redpipe.WithFields(sel))
		if err != nil {
			return err
		}
		if !s.Persisted() {
			return fmt.Errorf("%s not found", s)
		}
		return env.Print(StructView{s: s})
	})
}

// parseAssignments turns FIELD=VALUE arguments into a change map.
func parseAssignments(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one FIELD=VALUE is required")
	}
	changes := make(map[string]any, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid assignment %q, want FIELD=VALUE", arg)
		}
		changes[field] = value
	}
	return changes, nil
}

func structSet(c *cli.Context) error {
	if c.NArg() < 3 {
		return fmt.Errorf("usage: struct set TYPE KEY FIELD=VALUE...")
	}
	changes, err := parseAssignments(c.Args().Slice()[2:])
	if err != nil {
		return err
	}
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	return env.run(c, func(ctx context.Context, reg *redpipe.Registry) error {
		t := structType(c, reg, c.Args().Get(0))
		pipe := redpipe.NewPipeline(redpipe.WithRegistry(reg), redpipe.WithConnection(t.Connection))

		s, err := t.New(ctx, c.Args().Get(1), redpipe.NoOp())
		if err != nil {
			return err
		}
		if c.Bool("nx") {
			err = s.UpdateNX(ctx, pipe, changes)
		} else {
			err = s.Update(ctx, pipe, changes)
		}
		if err != nil {
			return err
		}
		if err := s.Load(ctx, pipe, redpipe.SelectAll); err != nil {
			return err
		}
		if err := pipe.Execute(ctx); err != nil {
			return err
		}
		logger.L(logger.WithConnection(ctx, t.Connection)).Debug("struct updated", "struct", s.String(), "fields", len(changes))
		return env.Print(StructView{s: s})
	})
}

// IncrResult is the value of a field after struct incr.
type IncrResult struct {
	Key   string `json:"key" yaml:"key"`
	Field string `json:"field" yaml:"field"`
	Value int64  `json:"value" yaml:"value"`
}

func structIncr(c *cli.Context) error {
	if c.NArg() != 3 {
		return fmt.Errorf("usage: struct incr TYPE KEY FIELD")
	}
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	return env.run(c, func(ctx context.Context, reg *redpipe.Registry) error {
		t := structType(c, reg, c.Args().Get(0))
		t.Fields = map[string]redpipe.Field{c.Args().Get(2): redpipe.IntegerField}

		s, err := t.New(ctx, c.Args().Get(1), redpipe.NoOp())
		if err != nil {
			return err
		}
		v, err := s.Incr(ctx, nil, c.Args().Get(2), c.Int64("by")).Result()
		if err != nil {
			return err
		}
		return env.Print(IncrResult{Key: s.String(), Field: c.Args().Get(2), Value: v})
	})
}

// DeleteResult reports how many records were removed.
type DeleteResult struct {
	Requested int   `json:"requested" yaml:"requested"`
	Deleted   int64 `json:"deleted" yaml:"deleted"`
}

func structDelete(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: struct delete TYPE KEY...")
	}
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	return env.run(c, func(ctx context.Context, reg *redpipe.Registry) error {
		t := structType(c, reg, c.Args().Get(0))
		keys := c.Args().Slice()[1:]

		n, err := t.Delete(ctx, nil, keys...).Result()
		if err != nil {
			return err
		}
		return env.Print(DeleteResult{Requested: len(keys), Deleted: n})
	})
}
