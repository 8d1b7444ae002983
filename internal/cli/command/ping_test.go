package command

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

func TestPingAll(t *testing.T) {
	a := miniredis.RunT(t)
	b := miniredis.RunT(t)
	_ = a.Set("k1", "v")
	_ = a.Set("k2", "v")

	reg := redpipe.NewRegistry()
	for name, mr := range map[string]*miniredis.Miniredis{"a": a, "b": b} {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		if err := reg.ConnectRedis(client, name, false); err != nil {
			t.Fatalf("ConnectRedis() error = %v", err)
		}
	}

	report := PingAll(context.Background(), reg)
	if report.Failed() != 0 {
		t.Fatalf("Failed() = %d, results %+v", report.Failed(), report.Results)
	}
	if len(report.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(report.Results))
	}
	if r := report.Results[0]; r.Connection != "a" || r.Keys != 2 || r.Reply != "PONG" {
		t.Errorf("a = %+v", r)
	}
	if r := report.Results[1]; r.Connection != "b" || r.Keys != 0 {
		t.Errorf("b = %+v", r)
	}
}

func TestPing_Command(t *testing.T) {
	_, path := newMiniredisConfig(t)

	out, _, err := runApp(t, "--config", path, "-o", "json", "ping")
	if err != nil {
		t.Fatalf("ping error = %v", err)
	}

	var report PingReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(report.Results) != 1 || !report.Results[0].OK {
		t.Errorf("report = %+v", report)
	}
}

func TestPing_OneDown(t *testing.T) {
	mr := miniredis.RunT(t)
	path := writeConfig(t, map[string]string{
		"default": "redis://" + mr.Addr(),
		"down":    "redis://127.0.0.1:1",
	}, "")

	out, _, err := runApp(t, "--config", path, "ping", "--timeout", "2s")
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("error = %v, want 1 of 2 connections failed", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("table = %q", out)
	}
	if !strings.Contains(lines[1], "default") || !strings.Contains(lines[1], "ok") {
		t.Errorf("default row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "down") {
		t.Errorf("down row = %q", lines[2])
	}
}
