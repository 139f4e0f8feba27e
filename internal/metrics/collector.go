package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// QueueSource provides the collector access to live worker pool state.
type QueueSource interface {
	PendingJobs() int
	CompletedJobs() int64
	FailedJobs() int64
}

// Collector implements prometheus.Collector to read live gauges at scrape
// time instead of pushing them on every queue operation.
type Collector struct {
	queue QueueSource
	pool  *pgxpool.Pool

	queuePending    *prometheus.Desc
	queueCompleted  *prometheus.Desc
	queueFailed     *prometheus.Desc
	dbTotalConns    *prometheus.Desc
	dbAcquiredConns *prometheus.Desc
	dbIdleConns     *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// queue may be nil when no pool is running; pool may be nil when the
// transcript index is not configured (the db gauges then report 0).
func NewCollector(queue QueueSource, pool *pgxpool.Pool) *Collector {
	return &Collector{
		queue: queue,
		pool:  pool,
		queuePending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "queue_pending"),
			"Jobs waiting in the transcription queue.",
			nil, nil,
		),
		queueCompleted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "queue_completed_total"),
			"Queued jobs finished successfully since start.",
			nil, nil,
		),
		queueFailed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "queue_failed_total"),
			"Queued jobs that ended in error since start.",
			nil, nil,
		),
		dbTotalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total database pool connections.",
			nil, nil,
		),
		dbAcquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Database pool connections currently in use.",
			nil, nil,
		),
		dbIdleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
			"Database pool idle connections.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queuePending
	ch <- c.queueCompleted
	ch <- c.queueFailed
	ch <- c.dbTotalConns
	ch <- c.dbAcquiredConns
	ch <- c.dbIdleConns
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.queue != nil {
		ch <- prometheus.MustNewConstMetric(c.queuePending, prometheus.GaugeValue, float64(c.queue.PendingJobs()))
		ch <- prometheus.MustNewConstMetric(c.queueCompleted, prometheus.CounterValue, float64(c.queue.CompletedJobs()))
		ch <- prometheus.MustNewConstMetric(c.queueFailed, prometheus.CounterValue, float64(c.queue.FailedJobs()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.queuePending, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.queueCompleted, prometheus.CounterValue, 0)
		ch <- prometheus.MustNewConstMetric(c.queueFailed, prometheus.CounterValue, 0)
	}

	if c.pool != nil {
		stat := c.pool.Stat()
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, 0)
	}
}
