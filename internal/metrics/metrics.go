package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connection cache metrics
	CacheAcquires = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdcr_cache_acquires_total",
			Help: "Total number of connection cache acquisitions",
		},
		[]string{"environment", "outcome"}, // outcome: hit|miss|error
	)

	PoolsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdcr_pools_open",
			Help: "Current number of cached connection pools",
		},
	)

	// Report metrics
	ReportQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdcr_report_queries_total",
			Help: "Total number of report queries executed",
		},
		[]string{"report", "status"}, // status: success|error
	)

	ReportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdcr_report_query_duration_seconds",
			Help:    "Report query duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"report"},
	)

	// Archive metrics
	ArchiveFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdcr_archive_flushes_total",
			Help: "Total number of archive batch flushes",
		},
		[]string{"table", "status"}, // status: success|error
	)

	ArchiveRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdcr_archive_rows_total",
			Help: "Total number of rows written to the archive",
		},
		[]string{"table"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(CacheAcquires)
	prometheus.MustRegister(PoolsOpen)
	prometheus.MustRegister(ReportQueries)
	prometheus.MustRegister(ReportDuration)
	prometheus.MustRegister(ArchiveFlushes)
	prometheus.MustRegister(ArchiveRows)
}

// Handler returns the HTTP handler serving the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCacheAcquire records one Acquire call against the connection cache
func RecordCacheAcquire(environment, outcome string) {
	CacheAcquires.WithLabelValues(environment, outcome).Inc()
}

// SetPoolsOpen records the current number of cached pools
func SetPoolsOpen(n int) {
	PoolsOpen.Set(float64(n))
}

// RecordReportQuery records one report execution
func RecordReportQuery(report string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ReportQueries.WithLabelValues(report, status).Inc()
	ReportDuration.WithLabelValues(report).Observe(duration.Seconds())
}

// RecordArchiveFlush records one archive batch flush
func RecordArchiveFlush(table string, rows int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ArchiveFlushes.WithLabelValues(table, status).Inc()
	if err == nil {
		ArchiveRows.WithLabelValues(table).Add(float64(rows))
	}
}
