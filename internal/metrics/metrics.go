// Package metrics exposes store, pool and HTTP metrics to Prometheus.
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"unit-telemetry-backend/internal/apperr"
)

const metricsNamespace = "telemetry"

// PoolStats reports the state of the connection pool, usually
// (*sql.DB).Stats.
type PoolStats func() sql.DBStats

// Collector is a prometheus.Collector for the telemetry service. It also
// satisfies store.Observer.
type Collector struct {
	storeOperations *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec

	poolStats       PoolStats
	poolOpen        *prometheus.Desc
	poolInUse       *prometheus.Desc
	poolIdle        *prometheus.Desc
	poolWaitCount   *prometheus.Desc
	poolWaitSeconds *prometheus.Desc
}

// NewCollector returns a new Collector. poolStats may be nil, in which case
// no pool metrics are reported.
func NewCollector(poolStats PoolStats) *Collector {
	return &Collector{
		storeOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Store operations by operation and error kind (ok on success).",
			}, []string{"op", "kind"},
		),
		storeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "store",
				Name:      "operation_seconds",
				Help:      "Time spent in store operations, gate wait included.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			}, []string{"op"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status code.",
			}, []string{"method", "route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_seconds",
				Help:      "HTTP request latency by method and route.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route"},
		),

		poolStats: poolStats,
		poolOpen: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "db_pool", "open_connections"),
			"Established connections, in use and idle.", nil, nil),
		poolInUse: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "db_pool", "in_use_connections"),
			"Connections currently in use.", nil, nil),
		poolIdle: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "db_pool", "idle_connections"),
			"Idle connections.", nil, nil),
		poolWaitCount: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "db_pool", "wait_count_total"),
			"Connections waited for.", nil, nil),
		poolWaitSeconds: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "db_pool", "wait_seconds_total"),
			"Time blocked waiting for a connection.", nil, nil),
	}
}

// ObserveOperation records one finished store operation.
func (c *Collector) ObserveOperation(op string, kind apperr.Kind, elapsed time.Duration) {
	label := string(kind)
	if label == "" {
		label = "ok"
	}
	c.storeOperations.WithLabelValues(op, label).Inc()
	c.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request. route is the matched
// pattern, not the raw path.
func (c *Collector) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.storeOperations.Describe(ch)
	c.storeDuration.Describe(ch)
	c.httpRequests.Describe(ch)
	c.httpDuration.Describe(ch)
	if c.poolStats != nil {
		ch <- c.poolOpen
		ch <- c.poolInUse
		ch <- c.poolIdle
		ch <- c.poolWaitCount
		ch <- c.poolWaitSeconds
	}
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.storeOperations.Collect(ch)
	c.storeDuration.Collect(ch)
	c.httpRequests.Collect(ch)
	c.httpDuration.Collect(ch)
	if c.poolStats == nil {
		return
	}
	stats := c.poolStats()
	ch <- prometheus.MustNewConstMetric(c.poolOpen, prometheus.GaugeValue, float64(stats.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.poolInUse, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(c.poolIdle, prometheus.GaugeValue, float64(stats.Idle))
	ch <- prometheus.MustNewConstMetric(c.poolWaitCount, prometheus.CounterValue, float64(stats.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.poolWaitSeconds, prometheus.CounterValue, stats.WaitDuration.Seconds())
}
