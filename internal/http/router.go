package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/eugenetan01/travel-aggregator/internal/observability"
)

// NewRouter registers every route on a gorilla/mux router. requestTimeout
// bounds the routes that call upstreams; health and metrics are unbounded.
func NewRouter(h *Handler, logger *zap.Logger, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	bounded := TimeoutMiddleware(requestTimeout)
	handle := func(path string, fn http.HandlerFunc, method string) {
		router.Handle(path, bounded(fn)).Methods(method)
	}

	router.HandleFunc("/", h.GetRoot).Methods(http.MethodGet)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	handle("/destinations", h.ListDestinations, http.MethodGet)
	// Registered before {code} so "search" is not taken as a code.
	handle("/destinations/search", h.SearchDestination, http.MethodGet)
	handle("/destinations/{code}", h.GetDestination, http.MethodGet)
	handle("/travel-summary", h.PostTravelSummary, http.MethodPost)
	handle("/travel-summary-by-name", h.PostTravelSummaryByName, http.MethodPost)

	return router
}
