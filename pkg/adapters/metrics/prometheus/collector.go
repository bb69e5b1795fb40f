package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "itemapi"

// Transports an item can arrive over
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// Collector records service metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	itemsAccepted       *prometheus.CounterVec
	itemsRejected       *prometheus.CounterVec
	wsConnections       prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "route"},
		),
		itemsAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_accepted_total",
				Help:      "Total number of items that passed validation",
			},
			[]string{"transport"},
		),
		itemsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_rejected_total",
				Help:      "Total number of items rejected, by reason",
			},
			[]string{"transport", "reason"},
		),
		wsConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_connections_active",
				Help:      "Number of open WebSocket connections",
			},
		),
	}
}

// Handler exposes the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a finished HTTP request
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncItemsAccepted increments the count of accepted items
func (c *Collector) IncItemsAccepted(transport string) {
	c.itemsAccepted.WithLabelValues(transport).Inc()
}

// IncItemsRejected increments the count of rejected items
func (c *Collector) IncItemsRejected(transport, reason string) {
	c.itemsRejected.WithLabelValues(transport, reason).Inc()
}

// WebSocketOpened tracks a newly upgraded connection
func (c *Collector) WebSocketOpened() {
	c.wsConnections.Inc()
}

// WebSocketClosed tracks a closed connection
func (c *Collector) WebSocketClosed() {
	c.wsConnections.Dec()
}
