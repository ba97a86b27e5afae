package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GSA9429/Satellite-vectors/internal/propagation"
)

var (
	catalogElementSets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "groundtrack_catalog_element_sets",
			Help: "Number of element sets in the broadcast catalog.",
		},
	)

	droppedElementSets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "groundtrack_partition_dropped_element_sets",
			Help: "Element sets left out of every partition by the drop remainder policy.",
		},
	)

	instantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundtrack_instants_total",
			Help: "Grid instants evaluated, per unit.",
		},
		[]string{"rank"},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundtrack_propagations_total",
			Help: "Element set propagations by outcome.",
		},
		[]string{"outcome"},
	)

	rowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundtrack_rows_total",
			Help: "In-region rows produced, per unit.",
		},
		[]string{"rank"},
	)

	unitDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "groundtrack_unit_dispatch_seconds",
			Help: "Wall time a unit spent walking the time grid.",
		},
		[]string{"rank"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "groundtrack_run_duration_seconds",
			Help:    "Wall time of a complete run, from load to merge.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(catalogElementSets)
	prometheus.MustRegister(droppedElementSets)
	prometheus.MustRegister(instantsTotal)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(rowsTotal)
	prometheus.MustRegister(unitDurationSeconds)
	prometheus.MustRegister(runDurationSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetCatalog records the catalog size and how many sets partitioning dropped.
func SetCatalog(size, dropped int) {
	catalogElementSets.Set(float64(size))
	droppedElementSets.Set(float64(dropped))
}

// RecordUnit records one unit's dispatch counters once it has walked the grid.
func RecordUnit(rank int, s propagation.Stats, d time.Duration) {
	r := strconv.Itoa(rank)
	instantsTotal.WithLabelValues(r).Add(float64(s.Instants))
	rowsTotal.WithLabelValues(r).Add(float64(s.Rows))
	unitDurationSeconds.WithLabelValues(r).Set(d.Seconds())

	propagationsTotal.WithLabelValues("ok").Add(float64(s.Propagated))
	propagationsTotal.WithLabelValues("propagation_error").Add(float64(s.PropagationFailures))
	propagationsTotal.WithLabelValues("conversion_error").Add(float64(s.ConversionFailures))
}

// ObserveRun records the duration of a finished run.
func ObserveRun(d time.Duration) {
	runDurationSeconds.Observe(d.Seconds())
}

// WriteTextfile dumps every registered metric in the text exposition format,
// for node_exporter's textfile collector or for archiving next to the CSV.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
