package services

import "github.com/prometheus/client_golang/prometheus"

// Cache lookup results.
const (
	lookupHit         = "hit"
	lookupMiss        = "miss"
	lookupUnavailable = "unavailable"
)

var (
	// cacheLookups counts summary cache reads by result (hit|miss|unavailable).
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_cache_lookups_total",
			Help: "Summary cache lookups by result.",
		},
		[]string{"result"},
	)

	// jobsTotal counts completed summarization jobs by terminal status.
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_jobs_total",
			Help: "Summarization jobs executed, by terminal status.",
		},
		[]string{"status"},
	)

	// jobJoins counts callers that reused an in-flight job instead of
	// starting their own.
	jobJoins = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_job_joins_total",
			Help: "Requests that joined an in-flight summarization job.",
		},
	)

	// jobDuration records fetch+summarize latency per job.
	jobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_job_duration_seconds",
			Help:    "Duration of summarization jobs in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	// cacheWriteFailures counts summaries that could not be stored.
	cacheWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_cache_write_failures_total",
			Help: "Summary cache writes that failed and were skipped.",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheLookups, jobsTotal, jobJoins, jobDuration, cacheWriteFailures)
}
