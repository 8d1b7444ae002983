package connection

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yndnr/redpipe-go/internal/config"
	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

func TestNewManager(t *testing.T) {
	m := NewManager(nil)
	if m == nil {
		t.Fatal("NewManager returned nil")
	}
	if m.Registry() == nil {
		t.Error("NewManager(nil) should create a registry")
	}
	if len(m.Registry().Names()) != 0 {
		t.Error("new manager should have no connections")
	}
}

func TestManager_Open(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{Connections: map[string]config.ConnectionConfig{
		"default": {URL: "redis://" + mr.Addr()},
		"tx":      {Addrs: []string{mr.Addr()}, DB: 1, Transaction: true},
	}}

	reg := redpipe.NewRegistry()
	m := NewManager(reg)
	if err := m.Open(cfg); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()

	if got := reg.Names(); len(got) != 2 || got[0] != "default" || got[1] != "tx" {
		t.Errorf("registry names = %v, want [default tx]", got)
	}
	if _, err := reg.Client("tx"); err != nil {
		t.Errorf("Client(tx) error = %v", err)
	}

	client, err := reg.Client("default")
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if err := client.Ping(t.Context()).Err(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestManager_OpenFailureCloses(t *testing.T) {
	cfg := &config.Config{Connections: map[string]config.ConnectionConfig{
		"a": {URL: "redis://127.0.0.1:1"},
		"b": {URL: "mysql://nope"},
	}}

	reg := redpipe.NewRegistry()
	m := NewManager(reg)
	if err := m.Open(cfg); err == nil {
		t.Fatal("Open() should fail on a bad url")
	}
	if len(reg.Names()) != 0 {
		t.Errorf("registry should be empty after a failed Open, got %v", reg.Names())
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() after a failed Open error = %v", err)
	}
}

func TestManager_Close(t *testing.T) {
	mr := miniredis.RunT(t)

	reg := redpipe.NewRegistry()
	m := NewManager(reg)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := m.Connect("default", client, false); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := reg.Client("default"); err == nil {
		t.Error("registry binding should be removed by Close")
	}
	if err := client.Ping(t.Context()).Err(); err == nil {
		t.Error("client should be closed")
	}
}
