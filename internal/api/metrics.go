package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "graylogic_adapter"

// metrics owns the server's private Prometheus registry.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

func newMetrics(reg *prometheus.Registry, src StatusSource) *metrics {
	m := &metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
	}

	reg.MustRegister(
		m.requests,
		newDispatchCollector(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// middleware counts requests by chi route pattern so path parameters do not
// explode label cardinality.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

// dispatchCollector reads the adapter counters at scrape time.
type dispatchCollector struct {
	src StatusSource

	counters  map[string]*prometheus.Desc
	connected *prometheus.Desc
	bindings  *prometheus.Desc
}

func newDispatchCollector(src StatusSource) *dispatchCollector {
	c := &dispatchCollector{
		src:      src,
		counters: make(map[string]*prometheus.Desc),
		connected: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "connected"),
			"1 when the broker session is connected.",
			nil, nil,
		),
		bindings: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "bindings"),
			"Number of bindings by kind.",
			[]string{"kind"}, nil,
		),
	}
	for name, help := range map[string]string{
		"published_total":         "Messages published to the broker.",
		"publish_failures_total":  "Publishes rejected by the broker client.",
		"encode_failures_total":   "Property values or events that could not be encoded.",
		"ignored_changes_total":   "State changes that are not property updates.",
		"unbound_keys_total":      "Property updates or events with no binding.",
		"actions_delivered_total": "Actions submitted to the entity.",
		"decode_failures_total":   "Action payloads that could not be decoded.",
		"submit_failures_total":   "Actions rejected by the entity.",
		"dropped_messages_total":  "Action messages received after shutdown began.",
	} {
		c.counters[name] = prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, nil, nil)
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *dispatchCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d
	}
	ch <- c.connected
	ch <- c.bindings
}

// Collect implements prometheus.Collector.
func (c *dispatchCollector) Collect(ch chan<- prometheus.Metric) {
	status := c.src.Status()
	s := status.Stats

	for name, v := range map[string]uint64{
		"published_total":         s.Published,
		"publish_failures_total":  s.PublishFailures,
		"encode_failures_total":   s.EncodeFailures,
		"ignored_changes_total":   s.IgnoredChanges,
		"unbound_keys_total":      s.UnboundKeys,
		"actions_delivered_total": s.ActionsDelivered,
		"decode_failures_total":   s.DecodeFailures,
		"submit_failures_total":   s.SubmitFailures,
		"dropped_messages_total":  s.DroppedMessages,
	} {
		ch <- prometheus.MustNewConstMetric(c.counters[name], prometheus.CounterValue, float64(v))
	}

	connected := 0.0
	if status.State == "connected" {
		connected = 1
	}
	ch <- prometheus.MustNewConstMetric(c.connected, prometheus.GaugeValue, connected)

	ch <- prometheus.MustNewConstMetric(c.bindings, prometheus.GaugeValue, float64(status.Bindings.Properties), "property")
	ch <- prometheus.MustNewConstMetric(c.bindings, prometheus.GaugeValue, float64(status.Bindings.Events), "event")
	ch <- prometheus.MustNewConstMetric(c.bindings, prometheus.GaugeValue, float64(status.Bindings.Actions), "action")
}
