package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// PoolSource lists bound connections and their clients.
// *redpipe.Registry satisfies it.
type PoolSource interface {
	Names() []string
	Client(name string) (redis.UniversalClient, error)
}

// PoolCollector reports go-redis connection pool statistics for every
// connection bound in a PoolSource.
type PoolCollector struct {
	source PoolSource

	bound    *prometheus.Desc
	conns    *prometheus.Desc
	hits     *prometheus.Desc
	misses   *prometheus.Desc
	timeouts *prometheus.Desc
}

// NewPoolCollector creates a collector over source.
func NewPoolCollector(source PoolSource) *PoolCollector {
	return &PoolCollector{
		source: source,
		bound: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "connections_bound"),
			"Connection names bound in the registry.", nil, nil),
		conns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "connections"),
			"Pooled connections by state.", []string{"connection", "state"}, nil),
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "hits_total"),
			"Times a free connection was found in the pool.", []string{"connection"}, nil),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "misses_total"),
			"Times a free connection was not found in the pool.", []string{"connection"}, nil),
		timeouts: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "timeouts_total"),
			"Times a wait for a pooled connection timed out.", []string{"connection"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bound
	ch <- c.conns
	ch <- c.hits
	ch <- c.misses
	ch <- c.timeouts
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	names := c.source.Names()
	ch <- prometheus.MustNewConstMetric(c.bound, prometheus.GaugeValue, float64(len(names)))

	for _, name := range names {
		client, err := c.source.Client(name)
		if err != nil {
			continue
		}
		s := client.PoolStats()
		if s == nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.TotalConns), name, "total")
		ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.IdleConns), name, "idle")
		ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.StaleConns), name, "stale")
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits), name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), name)
		ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(s.Timeouts), name)
	}
}
