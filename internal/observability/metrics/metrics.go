package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "aqsensor_"

	resultSuccess = "success"
	resultError   = "error"
	resultNoData  = "no_data"
)

var (
	registerOnce sync.Once

	sensorsProcessed *prometheus.CounterVec
	sensorUptime     *prometheus.GaugeVec

	cleaningRows *prometheus.CounterVec

	jobTotal   *prometheus.CounterVec
	jobLatency *prometheus.HistogramVec

	reportRenderTotal *prometheus.CounterVec
)

// Init registers the collectors and, when db is set, the status store gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		sensorsProcessed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensors_processed_total",
				Help: "Total sensor files processed by job and result",
			},
			[]string{"job", "result"},
		)
		sensorUptime = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "sensor_uptime_percent",
				Help: "Last computed uptime percentage per sensor",
			},
			[]string{"country", "sensor"},
		)
		cleaningRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cleaning_rows_total",
				Help: "Rows seen by the cleaning job by outcome",
			},
			[]string{"outcome"},
		)
		jobTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "job_total",
				Help: "Total country jobs by job and result",
			},
			[]string{"job", "result"},
		)
		jobLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "job_latency_seconds",
				Help:    "Country job latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job", "result"},
		)
		reportRenderTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_render_total",
				Help: "Total rendered reports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			sensorsProcessed,
			sensorUptime,
			cleaningRows,
			jobTotal,
			jobLatency,
			reportRenderTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncSensorProcessed increments the per-sensor result counter.
func IncSensorProcessed(job, result string) {
	if job == "" {
		job = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if sensorsProcessed != nil {
		sensorsProcessed.WithLabelValues(job, result).Inc()
	}
}

// SetSensorUptime publishes the latest uptime of a sensor.
func SetSensorUptime(country, sensor string, percent int) {
	if sensorUptime != nil {
		sensorUptime.WithLabelValues(country, sensor).Set(float64(percent))
	}
}

// AddCleaningRows records kept and dropped rows of one cleaned file.
func AddCleaningRows(kept, dropped int) {
	if cleaningRows == nil {
		return
	}
	if kept > 0 {
		cleaningRows.WithLabelValues("kept").Add(float64(kept))
	}
	if dropped > 0 {
		cleaningRows.WithLabelValues("dropped").Add(float64(dropped))
	}
}

// ObserveJob records a country job latency and result.
func ObserveJob(job, result string, duration time.Duration) {
	if job == "" {
		job = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if jobTotal != nil {
		jobTotal.WithLabelValues(job, result).Inc()
	}
	if jobLatency != nil {
		jobLatency.WithLabelValues(job, result).Observe(duration.Seconds())
	}
}

// IncReportRender increments the report render counter.
func IncReportRender(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportRenderTotal != nil {
		reportRenderTotal.WithLabelValues(format, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultNoData  = resultNoData

	JobUptime   = "uptime"
	JobCleaning = "cleaning"
	JobStatus   = "status"
	JobSummary  = "summary"
)
