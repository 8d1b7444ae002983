package metric

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.PipelineExecutions == nil {
		t.Error("PipelineExecutions is nil")
	}
	if r.PipelineCommands == nil {
		t.Error("PipelineCommands is nil")
	}
	if r.PipelineDuration == nil {
		t.Error("PipelineDuration is nil")
	}
	if r.ScanKeys == nil {
		t.Error("ScanKeys is nil")
	}
}

func TestHandler(t *testing.T) {
	h := NewRegistry().Handler()
	if h == nil {
		t.Fatal("Handler() returned nil")
	}

	bodyStr := scrape(t, h)

	// Check for Go runtime metrics (from GoCollector)
	if !strings.Contains(bodyStr, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
}

func TestPipelineExecuted(t *testing.T) {
	r := NewRegistry()

	r.PipelineExecuted("default", 3, 5*time.Millisecond, nil)
	r.PipelineExecuted("default", 1, time.Millisecond, nil)
	r.PipelineExecuted("cache", 2, time.Millisecond, errors.New("boom"))

	bodyStr := scrape(t, r.Handler())

	if !strings.Contains(bodyStr, `redpipe_pipeline_executions_total{connection="default",result="ok"} 2`) {
		t.Error("expected redpipe_pipeline_executions_total for default ok")
	}
	if !strings.Contains(bodyStr, `redpipe_pipeline_executions_total{connection="cache",result="error"} 1`) {
		t.Error("expected redpipe_pipeline_executions_total for cache error")
	}
	if !strings.Contains(bodyStr, `redpipe_pipeline_commands_sum{connection="default"} 4`) {
		t.Error("expected redpipe_pipeline_commands_sum 4")
	}
	if !strings.Contains(bodyStr, `redpipe_pipeline_duration_seconds_count{connection="default"} 2`) {
		t.Error("expected redpipe_pipeline_duration_seconds_count 2")
	}
}

func TestScanKeys(t *testing.T) {
	r := NewRegistry()

	r.AddScanKeys("User", 10)
	r.AddScanKeys("User", 5)

	bodyStr := scrape(t, r.Handler())
	if !strings.Contains(bodyStr, `redpipe_scan_keys_total{keyspace="User"} 15`) {
		t.Error("expected redpipe_scan_keys_total 15")
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	// Simulate concurrent metric updates
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.PipelineExecuted("default", 1, time.Microsecond, nil)
				r.AddScanKeys("K", 1)
			}
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	bodyStr := scrape(t, r.Handler())
	if !strings.Contains(bodyStr, `redpipe_pipeline_executions_total{connection="default",result="ok"} 1000`) {
		t.Error("expected 1000 executions after concurrent updates")
	}
}
