package connection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/redpipe-go/internal/config"
	"github.com/yndnr/redpipe-go/internal/infra/tlsroots"
	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// Manager owns the clients redpipectl opened and their registry bindings.
type Manager struct {
	registry *redpipe.Registry
	clients  map[string]redis.UniversalClient
	keyPairs map[string]*tlsroots.KeyPair
	mu       sync.Mutex
}

// NewManager creates a manager binding into reg. A nil reg gets a fresh
// registry.
func NewManager(reg *redpipe.Registry) *Manager {
	if reg == nil {
		reg = redpipe.NewRegistry()
	}
	return &Manager{
		registry: reg,
		clients:  make(map[string]redis.UniversalClient),
		keyPairs: make(map[string]*tlsroots.KeyPair),
	}
}

// Registry returns the registry connections are bound in.
func (m *Manager) Registry() *redpipe.Registry {
	return m.registry
}

// Open creates and binds a client for every configured connection. On
// failure the clients opened so far are closed.
func (m *Manager) Open(cfg *config.Config) error {
	names := make([]string, 0, len(cfg.Connections))
	for name := range cfg.Connections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := cfg.Connections[name]
		client, kp, err := newClient(c)
		if err != nil {
			_ = m.Close()
			return fmt.Errorf("connection %s: %w", name, err)
		}
		if err := m.Connect(name, client, c.Transaction); err != nil {
			_ = client.Close()
			_ = m.Close()
			return fmt.Errorf("connection %s: %w", name, err)
		}
		if kp != nil {
			m.mu.Lock()
			m.keyPairs[name] = kp
			m.mu.Unlock()
		}
	}
	return nil
}

// WatchCertificates reloads client certificates when their files change,
// until ctx is done or Close. It returns how many key pairs are watched.
func (m *Manager) WatchCertificates(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kp := range m.keyPairs {
		kp.WatchAsync(ctx)
	}
	return len(m.keyPairs)
}

// Connect binds an existing client under name. The manager closes it on
// Close.
func (m *Manager) Connect(name string, client redis.UniversalClient, transaction bool) error {
	if err := m.registry.ConnectRedis(client, name, transaction); err != nil {
		return err
	}
	m.mu.Lock()
	m.clients[name] = client
	m.mu.Unlock()
	return nil
}

// Close unbinds and closes every client.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, client := range m.clients {
		m.registry.Disconnect(name)
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(m.clients, name)
	}
	for name, kp := range m.keyPairs {
		kp.Stop()
		delete(m.keyPairs, name)
	}
	return errors.Join(errs...)
}
