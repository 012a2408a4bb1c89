package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector agrupa las metricas Prometheus del servicio.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	resolutions  *prometheus.CounterVec
	anomalies    prometheus.Counter
}

// NewCollector crea el Collector y registra las metricas.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepwork_http_requests_total",
			Help: "Total de requests HTTP por metodo, ruta y status.",
		}, []string{"method", "path", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deepwork_http_request_seconds",
			Help:    "Latencia de requests HTTP en segundos.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepwork_profile_resolutions_total",
			Help: "Resoluciones de perfil por resultado (found, created, fallback).",
		}, []string{"outcome"}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deepwork_profile_row_anomalies_total",
			Help: "Consultas de perfil que devolvieron mas de una fila.",
		}),
	}

	registry.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.resolutions,
		c.anomalies,
	)

	return c
}

// RecordHTTPRequest registra un request atendido.
func (c *Collector) RecordHTTPRequest(method, path string, status int, latency time.Duration) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordResolution registra el resultado de una reconciliacion de perfil.
func (c *Collector) RecordResolution(outcome string) {
	c.resolutions.WithLabelValues(outcome).Inc()
}

// RecordAnomaly registra una consulta de perfil con filas duplicadas.
func (c *Collector) RecordAnomaly() {
	c.anomalies.Inc()
}

// Handler expone el endpoint /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
