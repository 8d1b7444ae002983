package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// ErrUnterminatedQuote is returned for a line with an open quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

type queued struct {
	line   string
	future *redpipe.Future[any]
}

// REPL reads redis commands, queues them on a pipeline and prints their
// replies on exec.
type REPL struct {
	input     io.Reader
	output    io.Writer
	completer *Completer
	history   *History

	registry   *redpipe.Registry
	connection string
	pipe       *redpipe.Pipeline
	queue      []queued
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// New creates a shell over reg, starting on connection.
func New(reg *redpipe.Registry, connection string, opts ...Option) *REPL {
	if connection == "" {
		connection = redpipe.DefaultConnection
	}
	r := &REPL{
		input:      os.Stdin,
		output:     os.Stdout,
		completer:  NewCompleter(),
		history:    NewHistory(""),
		registry:   reg,
		connection: connection,
		pipe:       redpipe.NewPipeline(redpipe.WithRegistry(reg), redpipe.WithConnection(connection)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Queued returns how many commands wait for exec.
func (r *REPL) Queued() int {
	return len(r.queue)
}

func (r *REPL) prompt() string {
	if n := len(r.queue); n > 0 {
		return fmt.Sprintf("redpipe[%s](%d)> ", r.connection, n)
	}
	return fmt.Sprintf("redpipe[%s]> ", r.connection)
}

// Run reads lines until exit, quit, EOF or ctx is done. Commands still
// queued at that point are discarded.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return r.close()
		}
		fmt.Fprint(r.output, r.prompt())

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return r.close()
			}
			continue
		}
		r.history.Add(line)

		if stop := r.execute(ctx, line); stop || eof {
			return r.close()
		}
	}
}

func (r *REPL) close() error {
	if n := len(r.queue); n > 0 {
		r.pipe.Reset()
		r.queue = nil
		fmt.Fprintf(r.output, "discarded %d queued commands\n", n)
	}
	return r.history.Save()
}

// execute handles one line and reports whether the shell should stop.
func (r *REPL) execute(ctx context.Context, line string) bool {
	args, err := splitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "(error) %v\n", err)
		return false
	}

	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		return true
	case "help":
		r.help(args[1:])
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
	case "queue":
		for i, q := range r.queue {
			fmt.Fprintf(r.output, "%d) %s\n", i+1, q.line)
		}
	case "discard":
		n := len(r.queue)
		r.pipe.Reset()
		r.queue = nil
		fmt.Fprintf(r.output, "discarded %d commands\n", n)
	case "use":
		r.use(args[1:])
	case "exec":
		r.exec(ctx)
	default:
		r.enqueue(ctx, line, args)
	}
	return false
}

func (r *REPL) help(args []string) {
	if len(args) > 0 {
		fmt.Fprintln(r.output, strings.Join(r.completer.Complete(args[0]), " "))
		return
	}
	fmt.Fprint(r.output, `Commands are queued until exec.
  exec           send the queue and print every reply
  discard        drop the queue
  queue          list queued commands
  use NAME       queue further commands on connection NAME
  history        show previous lines
  help PREFIX    list commands starting with PREFIX
  exit, quit     leave the shell
`)
}

func (r *REPL) use(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.output, "(error) usage: use NAME")
		return
	}
	if _, err := r.registry.Client(args[0]); err != nil {
		fmt.Fprintf(r.output, "(error) %v\n", err)
		return
	}
	r.connection = args[0]
	fmt.Fprintln(r.output, "OK")
}

func (r *REPL) enqueue(ctx context.Context, line string, args []string) {
	cmd := make([]any, len(args))
	for i, a := range args {
		cmd[i] = a
	}

	p := redpipe.Nested(r.pipe, r.connection)
	f := redpipe.Do(ctx, p, cmd...)
	_ = p.Execute(ctx)

	r.queue = append(r.queue, queued{line: line, future: f})
	fmt.Fprintln(r.output, "QUEUED")
}

func (r *REPL) exec(ctx context.Context) {
	if len(r.queue) == 0 {
		fmt.Fprintln(r.output, "(empty queue)")
		return
	}

	// Per-command failures are printed from the futures.
	_ = r.pipe.Execute(ctx)

	for i, q := range r.queue {
		prefix := fmt.Sprintf("%d) ", i+1)
		v, err := q.future.Result()
		switch {
		case q.future.IsNil():
			fmt.Fprintln(r.output, prefix+"(nil)")
		case err != nil:
			fmt.Fprintf(r.output, "%s(error) %v\n", prefix, err)
		default:
			writeReply(r.output, prefix, strings.Repeat(" ", len(prefix)), v)
		}
	}
	r.queue = nil
}

// writeReply prints v the way redis-cli does. first prefixes the first
// line and indent every following one.
func writeReply(w io.Writer, first, indent string, v any) {
	switch val := v.(type) {
	case nil:
		fmt.Fprintln(w, first+"(nil)")
	case string:
		fmt.Fprintf(w, "%s%q\n", first, val)
	case int64:
		fmt.Fprintf(w, "%s(integer) %d\n", first, val)
	case float64:
		fmt.Fprintf(w, "%s(double) %g\n", first, val)
	case bool:
		fmt.Fprintf(w, "%s(boolean) %t\n", first, val)
	case []any:
		if len(val) == 0 {
			fmt.Fprintln(w, first+"(empty array)")
			return
		}
		for i, e := range val {
			p := fmt.Sprintf("%d) ", i+1)
			lead := indent
			if i == 0 {
				lead = first
			}
			writeReply(w, lead+p, indent+strings.Repeat(" ", len(p)), e)
		}
	case map[any]any:
		keys := make([]string, 0, len(val))
		byKey := make(map[string]any, len(val))
		for k, e := range val {
			ks := fmt.Sprint(k)
			keys = append(keys, ks)
			byKey[ks] = e
		}
		sort.Strings(keys)
		if len(keys) == 0 {
			fmt.Fprintln(w, first+"(empty map)")
			return
		}
		for i, k := range keys {
			lead := indent
			if i == 0 {
				lead = first
			}
			writeReply(w, fmt.Sprintf("%s%q => ", lead, k), indent+"  ", byKey[k])
		}
	default:
		fmt.Fprintf(w, "%s%v\n", first, val)
	}
}

// splitArgs splits a line on spaces. Single and double quotes group words;
// inside double quotes a backslash escapes the next character.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, c := range line {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case quote == '"' && c == '\\':
			escaped = true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inArg = true
		case c == ' ' || c == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(c)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inArg {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}
