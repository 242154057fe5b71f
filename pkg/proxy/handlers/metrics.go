package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"unblock-hq/corsair/pkg/auth"
	"unblock-hq/corsair/pkg/proxy/types"
	"unblock-hq/corsair/pkg/telemetry/metrics"
)

// ServiceTokenHeader is the credential header for operator endpoints.
const ServiceTokenHeader = "X-Service-Token"

// MetricsHandler serves the operator metrics endpoints: GET /metrics
// (JSON aggregates) and GET /metrics/prometheus (scrape format). Both
// require the service token; a server with no token configured refuses
// all metrics requests.
type MetricsHandler struct {
	collector *metrics.Collector
	checker   *auth.ServiceTokenChecker
	promHTTP  http.Handler
}

// NewMetricsHandler creates the metrics handler.
func NewMetricsHandler(collector *metrics.Collector, checker *auth.ServiceTokenChecker) *MetricsHandler {
	return &MetricsHandler{
		collector: collector,
		checker:   checker,
		promHTTP:  promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}),
	}
}

// authorize checks the service token, writing the 403 envelope on
// failure.
func (h *MetricsHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if h.checker.Enabled() && h.checker.Check(r.Header.Get(ServiceTokenHeader)) {
		return true
	}
	writeError(w, r, types.NewError(types.ErrForbidden,
		"A valid service token is required.", http.StatusForbidden))
	return false
}

// Aggregates handles GET /metrics.
func (h *MetricsHandler) Aggregates(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.collector.Aggregates())
}

// Prometheus handles GET /metrics/prometheus.
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	h.promHTTP.ServeHTTP(w, r)
}
