package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)

	retrieved := FromContext(ctx)
	if retrieved == nil {
		t.Fatal("FromContext returned nil")
	}

	retrieved.Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	// Should return default logger when none is set
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestWithCommand(t *testing.T) {
	ctx := WithCommand(context.Background(), "ping")

	if got := CommandFromContext(ctx); got != "ping" {
		t.Errorf("CommandFromContext() = %q, want %q", got, "ping")
	}
	if got := CommandFromContext(context.Background()); got != "" {
		t.Errorf("CommandFromContext() = %q, want empty", got)
	}
}

func TestWithConnection(t *testing.T) {
	ctx := WithConnection(context.Background(), "sessions")

	if got := ConnectionFromContext(ctx); got != "sessions" {
		t.Errorf("ConnectionFromContext() = %q, want %q", got, "sessions")
	}
	if got := ConnectionFromContext(context.Background()); got != "" {
		t.Errorf("ConnectionFromContext() = %q, want empty", got)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name       string
		command    string
		connection string
	}{
		{"both", "scan", "default"},
		{"command only", "ping", ""},
		{"none", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "json", Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			ctx := WithLogger(context.Background(), l)
			if tt.command != "" {
				ctx = WithCommand(ctx, tt.command)
			}
			if tt.connection != "" {
				ctx = WithConnection(ctx, tt.connection)
			}
			L(ctx).Info("test message")

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}

			got, ok := logEntry["command"]
			if tt.command == "" && ok {
				t.Errorf("Should not have command when not set, got %v", got)
			}
			if tt.command != "" && got != tt.command {
				t.Errorf("Expected command=%q, got %v", tt.command, got)
			}

			got, ok = logEntry["connection"]
			if tt.connection == "" && ok {
				t.Errorf("Should not have connection when not set, got %v", got)
			}
			if tt.connection != "" && got != tt.connection {
				t.Errorf("Expected connection=%q, got %v", tt.connection, got)
			}
		})
	}
}

func TestWithContext_AllBackends(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			l, buf := newBuffered(t, backend, "info")
			ctx := WithConnection(WithCommand(context.Background(), "struct set"), "cache")

			l.WithContext(ctx).Info("struct updated")
			l.WithContext(context.Background()).Info("bare")

			got := entries(t, l, buf)
			if len(got) != 2 {
				t.Fatalf("got %d entries, want 2", len(got))
			}
			if got[0]["command"] != "struct set" || got[0]["connection"] != "cache" {
				t.Errorf("entry = %v, want command and connection", got[0])
			}
			if _, ok := got[1]["command"]; ok {
				t.Errorf("bare entry = %v, want no command", got[1])
			}
		})
	}
}
