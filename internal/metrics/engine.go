package metrics

import "github.com/prometheus/client_golang/prometheus"

// Annotation engine Prometheus metrics.
var (
	AnnotationOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "annotator",
			Name:      "annotation_ops_total",
			Help:      "Annotation store mutations",
		},
		[]string{"op", "result"},
	)

	AnnotationsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "annotator",
			Name:      "annotations_stored",
			Help:      "Number of annotations currently in the store",
		},
	)

	HitTestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "annotator",
			Name:      "hit_test_total",
			Help:      "Hit-test resolutions by strategy and outcome",
		},
		[]string{"strategy", "result"}, // result: "hit" / "miss"
	)

	PageRenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "annotator",
			Name:      "page_render_duration_seconds",
			Help:      "Per-page render pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // raster, text_layer, annotations
	)

	RenderStaleTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "annotator",
			Name:      "render_stale_total",
			Help:      "Page render results dropped because the document changed",
		},
	)

	ImportRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "annotator",
			Name:      "import_records_total",
			Help:      "Imported annotation records by outcome",
		},
		[]string{"result"}, // "loaded" / "dropped"
	)

	TaxonomyErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "annotator",
			Name:      "taxonomy_errors_total",
			Help:      "Taxonomy store failures by operation",
		},
		[]string{"op"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers the annotation engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnnotationOpsTotal)
	prometheus.MustRegister(AnnotationsStored)
	prometheus.MustRegister(HitTestTotal)
	prometheus.MustRegister(PageRenderDuration)
	prometheus.MustRegister(RenderStaleTotal)
	prometheus.MustRegister(ImportRecordsTotal)
	prometheus.MustRegister(TaxonomyErrorsTotal)
	engineMetricsRegistered = true
}
