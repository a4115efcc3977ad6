package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/wb-sheets-sync/api/controllers"
	"github.com/angelmondragon/wb-sheets-sync/api/middleware"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
)

// OpsParams wires the operational endpoints of the sync worker.
type OpsParams struct {
	Env      string
	Logger   *logger.Logger
	Runs     controllers.RunReporter
	Deps     map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

// NewOpsRouter serves health probes and Prometheus metrics.
func NewOpsRouter(params OpsParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
	)

	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Env))
		r.Get("/ready", controllers.HealthReady(params.Env, params.Logger, params.Runs, params.Deps))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
