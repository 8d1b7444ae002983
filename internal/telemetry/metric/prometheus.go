package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redpipe"

// Registry holds all application metrics. It implements redpipe.Observer so
// it can be installed with (*redpipe.Registry).SetObserver.
type Registry struct {
	registry *prometheus.Registry

	// Pipeline metrics
	PipelineExecutions *prometheus.CounterVec
	PipelineCommands   *prometheus.HistogramVec
	PipelineDuration   *prometheus.HistogramVec

	// Scan metrics
	ScanKeys *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with Go runtime and process
// collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		PipelineExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_executions_total",
			Help:      "Pipeline round trips by connection and result.",
		}, []string{"connection", "result"}),
		PipelineCommands: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_commands",
			Help:      "Commands sent per pipeline round trip.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"connection"}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Pipeline round-trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"connection"}),
		ScanKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_keys_total",
			Help:      "Keys returned by keyspace scans.",
		}, []string{"keyspace"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.PipelineExecutions,
		r.PipelineCommands,
		r.PipelineDuration,
		r.ScanKeys,
	)
	return r
}

// PipelineExecuted records one connection group of an executed pipeline.
func (r *Registry) PipelineExecuted(connection string, commands int, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.PipelineExecutions.WithLabelValues(connection, result).Inc()
	r.PipelineCommands.WithLabelValues(connection).Observe(float64(commands))
	r.PipelineDuration.WithLabelValues(connection).Observe(elapsed.Seconds())
}

// AddScanKeys counts keys returned by a scan of keyspace.
func (r *Registry) AddScanKeys(keyspace string, n int) {
	r.ScanKeys.WithLabelValues(keyspace).Add(float64(n))
}

// MustRegister registers additional collectors, such as a PoolCollector.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
