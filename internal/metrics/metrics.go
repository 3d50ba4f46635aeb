// Package metrics provides Prometheus observability for the registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry. All methods are
// nil-safe so tests can pass a nil *Metrics.
type Metrics struct {
	// Lists uploaded, by outcome ("accepted", "rejected")
	ListUploads *prometheus.CounterVec

	// Items written per upload
	UploadItems prometheus.Histogram

	// Adjudication decisions by action ("confirm", "reject") and resulting
	// item status
	Adjudications *prometheus.CounterVec

	// Pipeline stage runs by action and outcome ("ok", "error")
	PipelineStages *prometheus.CounterVec

	// Facility identifier allocation attempts per insert
	IDAllocationAttempts prometheus.Histogram

	// Registry query latency
	FacilityQueryLatency prometheus.Histogram
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		ListUploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_list_uploads_total",
			Help: "Total facility list uploads by outcome",
		}, []string{"outcome"}),

		UploadItems: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registry_upload_items",
			Help:    "Number of items in accepted list uploads",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),

		Adjudications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_adjudications_total",
			Help: "Total match adjudications by action and resulting item status",
		}, []string{"action", "item_status"}),

		PipelineStages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_pipeline_stage_runs_total",
			Help: "Total pipeline stage applications by action and outcome",
		}, []string{"action", "outcome"}),

		IDAllocationAttempts: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registry_facility_id_allocation_attempts",
			Help:    "Identifier allocation attempts needed per facility insert",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),

		FacilityQueryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registry_facility_query_duration_seconds",
			Help:    "Duration of facility registry searches",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementListUpload records an upload outcome.
func (m *Metrics) IncrementListUpload(outcome string) {
	if m != nil {
		m.ListUploads.WithLabelValues(outcome).Inc()
	}
}

// ObserveUploadItems records the item count of an accepted upload.
func (m *Metrics) ObserveUploadItems(n int) {
	if m != nil {
		m.UploadItems.Observe(float64(n))
	}
}

// IncrementAdjudication records an adjudication decision.
func (m *Metrics) IncrementAdjudication(action, itemStatus string) {
	if m != nil {
		m.Adjudications.WithLabelValues(action, itemStatus).Inc()
	}
}

// IncrementPipelineStage records a pipeline stage run.
func (m *Metrics) IncrementPipelineStage(action, outcome string) {
	if m != nil {
		m.PipelineStages.WithLabelValues(action, outcome).Inc()
	}
}

// ObserveIDAllocationAttempts records how many identifier mints an insert took.
func (m *Metrics) ObserveIDAllocationAttempts(n int) {
	if m != nil {
		m.IDAllocationAttempts.Observe(float64(n))
	}
}

// ObserveFacilityQueryLatency records the duration of a registry search.
func (m *Metrics) ObserveFacilityQueryLatency(d time.Duration) {
	if m != nil {
		m.FacilityQueryLatency.Observe(d.Seconds())
	}
}
