package leads

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	signalsDesc = prometheus.NewDesc(
		"leadscout_signals",
		"Stored signals by source",
		[]string{"source"}, nil,
	)
	enrichmentsDesc = prometheus.NewDesc(
		"leadscout_enrichments",
		"Stored enrichments",
		nil, nil,
	)
	scoresDesc = prometheus.NewDesc(
		"leadscout_scores",
		"Stored scores",
		nil, nil,
	)
	outreachDesc = prometheus.NewDesc(
		"leadscout_outreach",
		"Stored outreach messages by status",
		[]string{"status"}, nil,
	)
	runsDesc = prometheus.NewDesc(
		"leadscout_runs",
		"Recorded pipeline runs",
		nil, nil,
	)
)

// storeCollector reads table counts from the database on each scrape.
type storeCollector struct {
	svc *Service
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- signalsDesc
	ch <- enrichmentsDesc
	ch <- scoresDesc
	ch <- outreachDesc
	ch <- runsDesc
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := c.svc.Stats(ctx)
	if err != nil {
		c.svc.logger.Error("leads: collect metrics", "error", err)
		return
	}
	for src, n := range st.BySource {
		ch <- prometheus.MustNewConstMetric(signalsDesc, prometheus.GaugeValue, float64(n), src)
	}
	ch <- prometheus.MustNewConstMetric(enrichmentsDesc, prometheus.GaugeValue, float64(st.Enrichments))
	ch <- prometheus.MustNewConstMetric(scoresDesc, prometheus.GaugeValue, float64(st.Scores))
	for status, n := range st.OutreachByStatus {
		ch <- prometheus.MustNewConstMetric(outreachDesc, prometheus.GaugeValue, float64(n), status)
	}
	ch <- prometheus.MustNewConstMetric(runsDesc, prometheus.GaugeValue, float64(st.Runs))
}

// apiMetrics counts API requests by route pattern and status code.
type apiMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newAPIMetrics(reg prometheus.Registerer) *apiMetrics {
	m := &apiMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadscout_http_requests_total",
			Help: "API requests by route and status code",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadscout_http_request_duration_seconds",
			Help:    "API request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (m *apiMetrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// newRegistry returns a registry carrying the store collector, the API
// request metrics and the Go runtime collectors.
func (s *Service) newRegistry() (*prometheus.Registry, *apiMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		&storeCollector{svc: s},
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, newAPIMetrics(reg)
}
