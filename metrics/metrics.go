// Package metrics exposes Prometheus instrumentation for the classification
// pipeline. A categorized fraction far below the expected baseline is the
// primary signal that the pipeline is silently broken upstream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline collectors registered on one registerer
type Metrics struct {
	EntitiesClassified *prometheus.CounterVec
	MentionsRejected   prometheus.Counter
	PipelineFaults     prometheus.Counter
	CategoriesAssigned *prometheus.CounterVec
	ConflictsFlagged   prometheus.Counter
	CategorizedRatio   prometheus.Gauge
	BatchDuration      prometheus.Histogram
}

// New registers the pipeline collectors on the given registerer.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntitiesClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "entities_classified_total",
			Help:      "Entities classified, by resolving tier and resulting type.",
		}, []string{"tier", "entity_type"}),
		MentionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "mentions_rejected_total",
			Help:      "Mention texts rejected by the validation gate.",
		}),
		PipelineFaults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "pipeline_faults_total",
			Help:      "Entities whose classification failed with an error.",
		}),
		CategoriesAssigned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "categories_assigned_total",
			Help:      "Category assignments written, by category and confidence band.",
		}, []string{"category", "band"}),
		ConflictsFlagged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "category_conflicts_flagged_total",
			Help:      "Contradictory category pairs kept and flagged for review.",
		}),
		CategorizedRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "dossier",
			Name:      "entities_categorized_ratio",
			Help:      "Fraction of stored entities holding at least one category.",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dossier",
			Name:      "batch_classification_duration_seconds",
			Help:      "Wall time of full batch classification runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}
