package report

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"cmcl/internal/domain"
)

// Exporter keeps the latest results as Prometheus gauges so they can be
// written for the node-exporter textfile collector.
type Exporter struct {
	registry *prometheus.Registry
	mapPct   *prometheus.GaugeVec
	queries  *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		mapPct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cmcl_retrieval_map_percent",
			Help: "Mean average precision of a retrieval pair, in percent rounded to two decimals",
		}, []string{"pair", "views"}),
		queries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cmcl_retrieval_queries",
			Help: "Number of queries scored per pair for a given image view count",
		}, []string{"views"}),
	}
	e.registry.MustRegister(e.mapPct, e.queries)
	return e
}

// Observe records every pair of r.
func (e *Exporter) Observe(r *domain.Report) {
	views := strconv.Itoa(r.Views)
	for _, res := range r.Results {
		e.mapPct.WithLabelValues(res.Pair.Name(), views).Set(res.Percent)
	}
	e.queries.WithLabelValues(views).Set(float64(r.Samples))
}

// Registry exposes the private registry, e.g. for an HTTP handler.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// WriteTextfile atomically writes all gauges in the text exposition format.
func (e *Exporter) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.registry)
}
