package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements port.MetricsSink on a private registry. All methods
// are fire-and-forget; nothing here can fail a reservation.
type Prometheus struct {
	registry     *prometheus.Registry
	orderCounter *prometheus.CounterVec
	stockGauge   *prometheus.GaugeVec
	httpDuration *prometheus.HistogramVec
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	orderCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "total_orders",
		Help: "total number of orders processed",
	}, []string{"status"})

	stockGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inventory_stock_level",
		Help: "Current stock level of items",
	}, []string{"product_id"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1, 2.5},
	}, []string{"method", "route", "status_code"})

	registry.MustRegister(orderCounter, stockGauge, httpDuration)

	return &Prometheus{
		registry:     registry,
		orderCounter: orderCounter,
		stockGauge:   stockGauge,
		httpDuration: httpDuration,
	}
}

func (p *Prometheus) IncOrder(status string) {
	p.orderCounter.WithLabelValues(status).Inc()
}

func (p *Prometheus) SetStockLevel(productID string, stock int) {
	p.stockGauge.WithLabelValues(productID).Set(float64(stock))
}

func (p *Prometheus) ObserveHTTPRequest(method, route string, status int, seconds float64) {
	p.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

// Handler serves the registry in Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
