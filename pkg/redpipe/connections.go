package redpipe

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultConnection is the name used when no connection name is given.
const DefaultConnection = "default"

// Logger is the logging surface redpipe needs. The application logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}

// Observer receives one call per connection group after a pipeline executes.
type Observer interface {
	PipelineExecuted(connection string, commands int, elapsed time.Duration, err error)
}

type binding struct {
	client      redis.UniversalClient
	transaction bool
	identity    string
}

// Registry binds connection names to redis clients.
//
// Pipelines look connections up by name when they execute, so a name can be
// bound after commands were queued against it.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*binding
	observer Observer
	logger   Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]*binding),
		logger:   nopLogger{},
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by the package-level
// functions and by pipelines created without WithRegistry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// ConnectRedis binds client to name.
//
// Binding a name that already points at a different server fails with
// ErrAlreadyConnected. Binding it again to the same server replaces the
// client. With transaction set, pipelines on this name use MULTI/EXEC.
func (r *Registry) ConnectRedis(client redis.UniversalClient, name string, transaction bool) error {
	name = connectionName(name)
	identity := clientIdentity(client)

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bindings[name]; ok && b.identity != identity {
		return ErrAlreadyConnected.WithDetails("can't change connection for %s", name)
	}

	r.bindings[name] = &binding{
		client:      client,
		transaction: transaction,
		identity:    identity,
	}
	return nil
}

// Disconnect removes a binding. Unknown names are ignored.
func (r *Registry) Disconnect(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, connectionName(name))
}

// Reset removes every binding. Clients are not closed.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = make(map[string]*binding)
}

// Client returns the client bound to name.
func (r *Registry) Client(name string) (redis.UniversalClient, error) {
	b, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return b.client, nil
}

// Names returns the bound connection names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetObserver installs a metrics observer. Pass nil to remove it.
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// SetLogger installs a logger. Pass nil to silence logging.
func (r *Registry) SetLogger(l Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l == nil {
		l = nopLogger{}
	}
	r.logger = l
}

func (r *Registry) lookup(name string) (*binding, error) {
	name = connectionName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[name]
	if !ok {
		return nil, ErrInvalidPipeline.WithDetails("%s is not configured", name)
	}
	return b, nil
}

// pipeliner returns a fresh redis pipeline for name.
func (r *Registry) pipeliner(name string) (redis.Pipeliner, error) {
	b, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if b.transaction {
		return b.client.TxPipeline(), nil
	}
	return b.client.Pipeline(), nil
}

func (r *Registry) observe(conn string, commands int, elapsed time.Duration, err error) {
	r.mu.RLock()
	o := r.observer
	r.mu.RUnlock()
	if o != nil {
		o.PipelineExecuted(conn, commands, elapsed, err)
	}
}

func (r *Registry) log() Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

func connectionName(name string) string {
	if name == "" {
		return DefaultConnection
	}
	return name
}

// clientIdentity describes which server a client talks to. Two clients with
// the same identity are interchangeable for binding purposes.
func clientIdentity(c redis.UniversalClient) string {
	switch v := c.(type) {
	case *redis.Client:
		o := v.Options()
		return fmt.Sprintf("client:%s/%d/%s", o.Addr, o.DB, o.Username)
	case *redis.ClusterClient:
		o := v.Options()
		addrs := append([]string(nil), o.Addrs...)
		sort.Strings(addrs)
		return fmt.Sprintf("cluster:%s/%s", strings.Join(addrs, ","), o.Username)
	case *redis.Ring:
		o := v.Options()
		shards := make([]string, 0, len(o.Addrs))
		for name, addr := range o.Addrs {
			shards = append(shards, name+"="+addr)
		}
		sort.Strings(shards)
		return fmt.Sprintf("ring:%s/%d", strings.Join(shards, ","), o.DB)
	default:
		return fmt.Sprintf("%T:%p", c, c)
	}
}

// ConnectRedis binds client to name in the default registry.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	if err := redpipe.ConnectRedis(rdb, "users", false); err != nil {
//		return err
//	}
func ConnectRedis(client redis.UniversalClient, name string, transaction bool) error {
	return defaultRegistry.ConnectRedis(client, name, transaction)
}

// Disconnect removes name from the default registry.
func Disconnect(name string) {
	defaultRegistry.Disconnect(name)
}

// Reset removes every binding from the default registry.
func Reset() {
	defaultRegistry.Reset()
}

// Client returns the client bound to name in the default registry.
func Client(name string) (redis.UniversalClient, error) {
	return defaultRegistry.Client(name)
}
