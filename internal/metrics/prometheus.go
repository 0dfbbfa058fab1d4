package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AuditsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditpulse_audits_saved_total",
			Help: "Total audits written to the local store",
		},
		[]string{"channel"},
	)

	AuditsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auditpulse_audits_deleted_total",
			Help: "Total audits deleted from the local store",
		},
	)

	QualityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auditpulse_quality_score",
			Help:    "Quality scores of saved audits",
			Buckets: []float64{0, 25, 50, 75, 90, 95, 100},
		},
	)

	SyncPushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditpulse_sync_push_total",
			Help: "Remote push attempts by entity type and outcome",
		},
		[]string{"entity", "status"},
	)

	SyncPullTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditpulse_sync_pull_total",
			Help: "Full pull reconciliations by entity type and outcome",
		},
		[]string{"entity", "status"},
	)

	AIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditpulse_ai_requests_total",
			Help: "AI collaborator calls by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	AITokensUsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auditpulse_ai_tokens_used_total",
			Help: "Total LLM tokens consumed",
		},
	)

	AICost = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auditpulse_ai_cost_usd_total",
			Help: "Estimated LLM API cost in USD",
		},
	)

	ScorecardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auditpulse_scorecard_duration_seconds",
			Help:    "Scorecard computation duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditpulse_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditpulse_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(AuditsSaved)
	prometheus.MustRegister(AuditsDeleted)
	prometheus.MustRegister(QualityScore)
	prometheus.MustRegister(SyncPushTotal)
	prometheus.MustRegister(SyncPullTotal)
	prometheus.MustRegister(AIRequests)
	prometheus.MustRegister(AITokensUsed)
	prometheus.MustRegister(AICost)
	prometheus.MustRegister(ScorecardDuration)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
