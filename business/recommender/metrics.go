package recommender

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecommendationsServedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_recommendations_served_total",
			Help: "Count of recommendation requests by scorer (learned or rules) and cache outcome.",
		},
		[]string{"scored_by", "cache"},
	)

	RecommendationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "policy_recommendation_ranking_seconds",
		Help:    "Time spent scoring and ranking a catalog.",
		Buckets: prometheus.DefBuckets,
	})

	TrainingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_model_training_runs_total",
			Help: "Count of model training runs by outcome.",
		},
		[]string{"outcome"},
	)

	ModelVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "policy_model_version",
		Help: "Version of the currently published model snapshot (0 = rule-based only).",
	})

	FeedbackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_feedback_events_total",
			Help: "Count of recommendation feedback events by event type.",
		},
		[]string{"event_type"},
	)
)

func init() {
	prometheus.MustRegister(
		RecommendationsServedTotal,
		RecommendationLatency,
		TrainingRunsTotal,
		ModelVersion,
		FeedbackEventsTotal,
	)
}
