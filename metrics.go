package oracleworker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle_worker",
		Name:      "jobs_processed_total",
		Help:      "Jobs pulled from the queue and routed, by kind.",
	}, []string{"kind"})

	jobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle_worker",
		Name:      "jobs_failed_total",
		Help:      "Jobs dropped after a processing error, by kind.",
	}, []string{"kind"})

	generationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle_worker",
		Name:      "generations_skipped_total",
		Help:      "Generations skipped because content was still fresh for the user's local day.",
	}, []string{"role"})

	violationsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle_worker",
		Name:      "violations_recorded_total",
		Help:      "Moderation violations recorded, by type.",
	}, []string{"type"})

	translationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oracle_worker",
		Name:      "translation_fallbacks_total",
		Help:      "Translations that degraded to the untranslated original.",
	})
)
