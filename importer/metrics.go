// ABOUTME: Prometheus instrumentation for import batches
// ABOUTME: Counts batches, records and entity outcomes and times each import
package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cxboard",
		Subsystem: "import",
		Name:      "batches_total",
		Help:      "Import batches broken down by format and result.",
	}, []string{"format", "result"})

	importRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cxboard",
		Subsystem: "import",
		Name:      "records_total",
		Help:      "Source records read by import batches.",
	}, []string{"format"})

	importEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cxboard",
		Subsystem: "import",
		Name:      "entities_total",
		Help:      "Entity fragments by entity type and outcome (created or skipped).",
	}, []string{"entity", "outcome"})

	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cxboard",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Wall time of import batches.",
		Buckets: []float64{
			0.005, 0.01, 0.05,
			0.1, 0.5, 1,
			2, 5, 10, 30,
		},
	}, []string{"format"})
)

func observeReport(r *Report) {
	importRecords.WithLabelValues(r.Format).Add(float64(r.Records))
	importEntities.WithLabelValues("contact", "created").Add(float64(len(r.Contacts)))
	importEntities.WithLabelValues("activity", "created").Add(float64(len(r.Activities)))
	importEntities.WithLabelValues("survey", "created").Add(float64(len(r.Surveys)))
	for _, issue := range r.Errors {
		entity := issue.Entity
		if entity == "" {
			entity = "record"
		}
		importEntities.WithLabelValues(entity, "skipped").Inc()
	}
}
