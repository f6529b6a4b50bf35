package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the tracker's HTTP surface and
// ingest pipeline, and provides middleware to wire them into the router.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	StoredRecords    prometheus.Gauge
	IngestRejected   prometheus.Gauge
	GeocodeFailures  prometheus.Counter
	IngestsTotal     *prometheus.CounterVec
	LastIngestUnixTS prometheus.Gauge
}

// NewCollector registers the tracker metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route template, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "tracker_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracker_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "tracker_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	stored, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_store_records",
		Help: "Current number of state vectors in the trajectory store.",
	}), "tracker_store_records")
	if err != nil {
		return nil, err
	}
	rejected, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_ingest_rejected_records",
		Help: "Records rejected during the most recent ingest.",
	}), "tracker_ingest_rejected_records")
	if err != nil {
		return nil, err
	}
	lastIngest, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_last_ingest_timestamp_seconds",
		Help: "Unix time of the most recent completed ingest.",
	}), "tracker_last_ingest_timestamp_seconds")
	if err != nil {
		return nil, err
	}

	ingests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_ingests_total",
		Help: "Completed ingest attempts, labeled by outcome (loaded, skipped, failed).",
	}, []string{"outcome"})
	ingests, err = registerCounterVec(reg, ingests, "tracker_ingests_total")
	if err != nil {
		return nil, err
	}

	geocodeFailures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_geocode_failures_total",
		Help: "Reverse-geocode calls that failed or timed out and degraded to the sentinel place.",
	}), "tracker_geocode_failures_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		HTTPRequests:     requests,
		HTTPDurations:    durations,
		StoredRecords:    stored,
		IngestRejected:   rejected,
		GeocodeFailures:  geocodeFailures,
		IngestsTotal:     ingests,
		LastIngestUnixTS: lastIngest,
	}, nil
}

// Middleware records request counts and durations, labeled by the mux route
// template so path parameters don't explode cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, fmt.Sprintf("%d", rec.status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// IncGeocodeFailure satisfies the query engine's MetricsRecorder interface.
func (c *Collector) IncGeocodeFailure() {
	if c == nil || c.GeocodeFailures == nil {
		return
	}
	c.GeocodeFailures.Inc()
}

// ObserveIngest records the outcome of one ingest run and the resulting
// store size.
func (c *Collector) ObserveIngest(outcome string, rejected, storeRecords int) {
	if c == nil {
		return
	}
	if c.IngestsTotal != nil {
		c.IngestsTotal.WithLabelValues(outcome).Inc()
	}
	if outcome == "failed" {
		return
	}
	if c.IngestRejected != nil {
		c.IngestRejected.Set(float64(rejected))
	}
	if c.StoredRecords != nil {
		c.StoredRecords.Set(float64(storeRecords))
	}
	if c.LastIngestUnixTS != nil {
		c.LastIngestUnixTS.Set(float64(time.Now().Unix()))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
