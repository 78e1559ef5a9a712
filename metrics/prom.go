package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastemd_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastemd_paste_retrieved_total",
		Help: "no. of pastes retrieved",
	})
	PasteEdited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastemd_paste_edited_total",
		Help: "no. of paste edits (content or metadata)",
	})
	PasteDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastemd_paste_deleted_total",
		Help: "no. of pastes deleted",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastemd_cache_hits_total",
		Help: "no. of cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastemd_cache_misses_total",
		Help: "no. of cache misses",
	})
	ViewsCounted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastemd_views_counted_total",
		Help: "no. of view increments accepted",
	})
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pastemd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	RecentErrorRatePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pastemd_recent_error_rate_percent",
		Help: "5min rolling avg error rate percentage",
	})
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastemd_rate_limit_hits_total",
			Help: "no. of rate limit violations",
		},
		[]string{"endpoint"},
	)
)

func Init() {
}
