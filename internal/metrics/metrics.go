package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardsmith_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardsmith_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Generation Metrics
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardsmith_generations_total",
			Help: "Total number of AI generation calls",
		},
		[]string{"status"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardsmith_generation_duration_seconds",
			Help:    "AI generation call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		},
	)

	GenerationTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardsmith_generation_tokens_total",
			Help: "Total tokens consumed by AI generation calls",
		},
		[]string{"direction"},
	)

	GenerationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardsmith_generation_candidates",
			Help:    "Number of candidates returned per generation call",
			Buckets: prometheus.LinearBuckets(1, 2, 10), // 1 to 19
		},
	)

	// Quota Metrics
	QuotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardsmith_quota_rejections_total",
			Help: "Total number of generation requests rejected by the daily quota",
		},
	)

	// Flashcard Metrics
	FlashcardsAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardsmith_flashcards_accepted_total",
			Help: "Total number of pending flashcards promoted into sets",
		},
	)

	FlashcardsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardsmith_flashcards_rejected_total",
			Help: "Total number of pending flashcards deleted without promotion",
		},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardsmith_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardsmith_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardsmith_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardsmith_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardsmith_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordGeneration records an AI generation call outcome
func RecordGeneration(status string, duration float64, inputTokens, outputTokens, candidates int) {
	GenerationsTotal.WithLabelValues(status).Inc()
	GenerationDuration.Observe(duration)
	GenerationTokens.WithLabelValues("input").Add(float64(inputTokens))
	GenerationTokens.WithLabelValues("output").Add(float64(outputTokens))
	if candidates > 0 {
		GenerationCandidates.Observe(float64(candidates))
	}
}

// RecordQuotaRejection records a request turned away by the daily quota
func RecordQuotaRejection() {
	QuotaRejectionsTotal.Inc()
}

// RecordFlashcardsAccepted records promoted pending flashcards
func RecordFlashcardsAccepted(count int) {
	FlashcardsAcceptedTotal.Add(float64(count))
}

// RecordFlashcardsRejected records discarded pending flashcards
func RecordFlashcardsRejected(count int) {
	FlashcardsRejectedTotal.Add(float64(count))
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	DatabaseOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
