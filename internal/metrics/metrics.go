// Package metrics records store and estimate metrics in a private
// Prometheus registry. A CLI run has no scrape endpoint, so the registry is
// written out in the text exposition format on request.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"pricecalc/core/pricing"
	"pricecalc/internal/errors"
)

// Metric names
const (
	MetricStoreSearchesTotal   = "pricecalc_store_searches_total"
	MetricStoreSearchSeconds   = "pricecalc_store_search_duration_seconds"
	MetricStoreRowsTotal       = "pricecalc_store_rows_total"
	MetricEstimatesTotal       = "pricecalc_estimates_total"
	MetricEstimateRecords      = "pricecalc_estimate_records"
	MetricEstimateTotalCost    = "pricecalc_estimate_total_cost"
	MetricEstimateServiceCount = "pricecalc_estimate_services"
)

// Recorder owns a registry and the collectors registered in it.
//
// Safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	searches      *prometheus.CounterVec
	searchSeconds *prometheus.HistogramVec
	rows          *prometheus.CounterVec
	estimates     *prometheus.CounterVec
	records       prometheus.Gauge
	totalCost     prometheus.Gauge
	services      prometheus.Gauge
}

// NewRecorder creates a recorder with every collector registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStoreSearchesTotal,
			Help: "Store searches by backend, service and outcome.",
		}, []string{"backend", "service", "outcome"}),
		searchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricStoreSearchSeconds,
			Help:    "Store search latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStoreRowsTotal,
			Help: "Price rows returned by store searches.",
		}, []string{"backend", "service"}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricEstimatesTotal,
			Help: "Estimates run, by outcome.",
		}, []string{"outcome"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricEstimateRecords,
			Help: "Pricing records in the last estimate.",
		}),
		totalCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricEstimateTotalCost,
			Help: "Total cost of the last estimate.",
		}),
		services: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricEstimateServiceCount,
			Help: "Service requests in the last estimate.",
		}),
	}

	r.registry.MustRegister(r.searches, r.searchSeconds, r.rows, r.estimates, r.records, r.totalCost, r.services)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// InstrumentStore wraps s so every search is counted and timed
func (r *Recorder) InstrumentStore(backend string, s pricing.Store) pricing.Store {
	return pricing.StoreFunc(func(ctx context.Context, q pricing.Query) ([]pricing.TierRow, error) {
		start := time.Now()
		rows, err := s.Search(ctx, q)
		r.searchSeconds.WithLabelValues(backend).Observe(time.Since(start).Seconds())

		if err != nil {
			r.searches.WithLabelValues(backend, q.Service, "error").Inc()
			return nil, err
		}
		r.searches.WithLabelValues(backend, q.Service, "ok").Inc()
		r.rows.WithLabelValues(backend, q.Service).Add(float64(len(rows)))
		return rows, nil
	})
}

// ObserveEstimate records the outcome of one estimate
func (r *Recorder) ObserveEstimate(services int, result pricing.PricingResult, err error) {
	if err != nil {
		r.estimates.WithLabelValues("error").Inc()
		return
	}
	r.estimates.WithLabelValues("ok").Inc()
	r.services.Set(float64(services))
	r.records.Set(float64(result.Len()))
	r.totalCost.Set(toFloat(result.TotalCost))
}

// WriteTextfile writes every metric to path in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrap(errors.TypeInternal, "write metrics textfile", err)
	}
	return nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
