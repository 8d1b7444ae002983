package redpipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Pipe is a command buffer: either a root Pipeline that talks to redis, or a
// nested pipeline that hands its work to a parent.
type Pipe interface {
	// Connection is the connection name new commands are queued against.
	Connection() string
	// OnExecute registers a callback that runs after the root pipeline
	// executed successfully.
	OnExecute(cb func())
	// Execute sends buffered commands (root) or flushes them into the
	// parent (nested).
	Execute(ctx context.Context) error
	// Reset discards buffered commands and callbacks.
	Reset()

	push(cmds []*command, callbacks []func())
	registry() *Registry
}

// command is one queued redis call together with the hooks that resolve its
// future once the round trip is over.
type command struct {
	conn    string
	build   func(ctx context.Context, rp redis.Pipeliner) redis.Cmder
	resolve func() error
	fail    func(err error)
}

// buffer is the state shared by root and nested pipelines.
type buffer struct {
	mu        sync.Mutex
	stack     []*command
	callbacks []func()
}

func (b *buffer) push(cmds []*command, callbacks []func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stack = append(b.stack, cmds...)
	b.callbacks = append(b.callbacks, callbacks...)
}

func (b *buffer) take() ([]*command, []func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stack, callbacks := b.stack, b.callbacks
	b.stack, b.callbacks = nil, nil
	return stack, callbacks
}

// Reset discards buffered commands and callbacks.
func (b *buffer) Reset() {
	b.take()
}

// Len returns the number of buffered commands.
func (b *buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.stack)
}

// Pipeline is a root pipeline. Commands queued on it, or on pipelines nested
// under it, are sent when Execute is called: one round trip per connection,
// with connections running concurrently.
type Pipeline struct {
	buffer
	id   ulid.ULID
	conn string
	reg  *Registry
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithConnection sets the connection name commands are queued against.
func WithConnection(name string) PipelineOption {
	return func(p *Pipeline) {
		p.conn = connectionName(name)
	}
}

// WithRegistry makes the pipeline resolve connections in r instead of the
// default registry.
func WithRegistry(r *Registry) PipelineOption {
	return func(p *Pipeline) {
		if r != nil {
			p.reg = r
		}
	}
}

// NewPipeline creates a root pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		id:   ulid.Make(),
		conn: DefaultConnection,
		reg:  defaultRegistry,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the pipeline id used in log lines.
func (p *Pipeline) ID() string {
	return p.id.String()
}

// Connection implements Pipe.
func (p *Pipeline) Connection() string {
	return p.conn
}

// OnExecute implements Pipe.
func (p *Pipeline) OnExecute(cb func()) {
	p.buffer.push(nil, []func(){cb})
}

func (p *Pipeline) registry() *Registry {
	return p.reg
}

// Execute sends every buffered command and resolves its future.
//
// The pipeline is empty afterwards and can be reused. Callbacks run in
// registration order only when every connection group succeeded; otherwise
// the joined per-connection errors are returned and callbacks are dropped.
func (p *Pipeline) Execute(ctx context.Context) error {
	stack, callbacks := p.take()

	if len(stack) > 0 {
		if err := p.send(ctx, stack); err != nil {
			return err
		}
	}

	for _, cb := range callbacks {
		cb()
	}
	return nil
}

func (p *Pipeline) send(ctx context.Context, stack []*command) error {
	var order []string
	groups := make(map[string][]*command)
	for _, c := range stack {
		if _, ok := groups[c.conn]; !ok {
			order = append(order, c.conn)
		}
		groups[c.conn] = append(groups[c.conn], c)
	}

	if len(order) == 1 {
		return p.sendGroup(ctx, order[0], stack)
	}

	errs := make([]error, len(order))
	var g errgroup.Group
	for i, conn := range order {
		cmds := groups[conn]
		g.Go(func() error {
			errs[i] = p.sendGroup(ctx, conn, cmds)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (p *Pipeline) sendGroup(ctx context.Context, conn string, cmds []*command) error {
	start := time.Now()
	log := p.reg.log()

	rp, err := p.reg.pipeliner(conn)
	if err != nil {
		for _, c := range cmds {
			c.fail(err)
		}
		p.reg.observe(conn, len(cmds), 0, err)
		return err
	}

	built := make([]redis.Cmder, len(cmds))
	for i, c := range cmds {
		built[i] = c.build(ctx, rp)
	}
	// Command failures are read per command below. A dial or write failure
	// is only returned by Exec and leaves every reply empty.
	_, err = rp.Exec(ctx)
	if err = transportError(built, err); err != nil {
		for _, cmd := range built {
			if cmd.Err() == nil {
				cmd.SetErr(err)
			}
		}
	}

	var first error
	for _, c := range cmds {
		if err := c.resolve(); err != nil && first == nil {
			first = err
		}
	}

	elapsed := time.Since(start)
	p.reg.observe(conn, len(cmds), elapsed, first)
	log.Debug("pipeline executed",
		"pipeline_id", p.ID(),
		"connection", conn,
		"commands", len(cmds),
		"elapsed", elapsed,
		"error", first,
	)

	if first != nil {
		return fmt.Errorf("connection %s: %w", conn, first)
	}
	return nil
}

// transportError returns the Exec error unless it is redis.Nil or the error
// of one of cmds.
func transportError(cmds []redis.Cmder, err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return nil
	}
	for _, cmd := range cmds {
		if cmd.Err() != nil && errors.Is(cmd.Err(), err) {
			return nil
		}
	}
	return err
}

// nestedPipeline buffers work and hands it to its parent on Execute.
type nestedPipeline struct {
	buffer
	parent Pipe
	conn   string
}

// Nested wraps parent. Commands and callbacks queued on the nested pipeline
// move into parent when Execute is called and are dropped by Reset. An empty
// name inherits the parent's connection. A nil parent yields a root pipeline.
func Nested(parent Pipe, name string) Pipe {
	if parent == nil {
		return NewPipeline(WithConnection(name))
	}
	if name == "" {
		name = parent.Connection()
	}
	return &nestedPipeline{
		parent: parent,
		conn:   name,
	}
}

func (n *nestedPipeline) Connection() string {
	return n.conn
}

func (n *nestedPipeline) OnExecute(cb func()) {
	n.buffer.push(nil, []func(){cb})
}

func (n *nestedPipeline) Execute(context.Context) error {
	stack, callbacks := n.take()
	n.parent.push(stack, callbacks)
	return nil
}

func (n *nestedPipeline) registry() *Registry {
	return n.parent.registry()
}

// AutoExec runs fn against a pipeline and then executes it.
//
// With a parent, fn gets a nested pipeline and nothing is sent: the work
// joins the parent's round trip. Without one, fn gets a fresh root pipeline
// on the default registry and its commands are sent before AutoExec returns.
// If fn fails, its buffered work is discarded.
func AutoExec(ctx context.Context, parent Pipe, name string, fn func(p Pipe) error) error {
	return autoExec(ctx, nil, parent, name, fn)
}

func autoExec(ctx context.Context, reg *Registry, parent Pipe, name string, fn func(p Pipe) error) error {
	var p Pipe
	if parent == nil {
		p = NewPipeline(WithConnection(name), WithRegistry(reg))
	} else {
		p = Nested(parent, name)
	}

	if err := fn(p); err != nil {
		p.Reset()
		return err
	}
	return p.Execute(ctx)
}

// resulter is the part of a go-redis command that yields its typed reply.
type resulter[T any] interface {
	redis.Cmder
	Result() (T, error)
}

// enqueue queues a command on p and returns its future.
func enqueue[T any, C resulter[T]](ctx context.Context, p Pipe, build func(ctx context.Context, rp redis.Pipeliner) C) *Future[T] {
	return enqueueMap(ctx, p, build, func(v T) (T, error) { return v, nil })
}

// enqueueMap queues a command on p and converts its reply with conv before
// resolving the future.
func enqueueMap[T, R any, C resulter[T]](ctx context.Context, p Pipe, build func(ctx context.Context, rp redis.Pipeliner) C, conv func(T) (R, error)) *Future[R] {
	f := newFuture[R](statsFrom(ctx))
	var cmd C

	p.push([]*command{{
		conn: connectionName(p.Connection()),
		build: func(ctx context.Context, rp redis.Pipeliner) redis.Cmder {
			cmd = build(ctx, rp)
			return cmd
		},
		resolve: func() error {
			v, err := cmd.Result()
			switch {
			case errors.Is(err, redis.Nil):
				f.SetNil()
				return nil
			case err != nil:
				f.Fail(err)
				return err
			}
			r, err := conv(v)
			if err != nil {
				f.Fail(err)
				return err
			}
			f.Set(r)
			return nil
		},
		fail: f.Fail,
	}}, nil)

	return f
}

// Do queues an arbitrary command on p.
//
//	f := redpipe.Do(ctx, pipe, "OBJECT", "ENCODING", "U{1}")
func Do(ctx context.Context, p Pipe, args ...any) *Future[any] {
	return enqueue[any](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.Cmd {
		return rp.Do(ctx, args...)
	})
}
