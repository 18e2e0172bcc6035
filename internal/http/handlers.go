package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/eugenetan01/travel-aggregator/internal/circuitbreaker"
	"github.com/eugenetan01/travel-aggregator/internal/degraded"
	"github.com/eugenetan01/travel-aggregator/internal/lifecycle"
	"github.com/eugenetan01/travel-aggregator/internal/models"
	"github.com/eugenetan01/travel-aggregator/internal/observability"
	"github.com/eugenetan01/travel-aggregator/internal/service"
)

// maxRequestBodyBytes caps POST bodies.
const maxRequestBodyBytes = 1 << 16

// TravelService is the aggregation surface the handlers depend on.
type TravelService interface {
	SummaryByCode(ctx context.Context, code string) (models.TravelSummary, error)
	SummaryByName(ctx context.Context, name string) (models.TravelSummary, error)
	ResolveByName(ctx context.Context, name string) (service.Resolution, error)
	Destination(ctx context.Context, code string) (models.Country, error)
	Destinations(ctx context.Context) ([]models.Country, error)
}

// BreakerStatus is the read side of a circuit breaker, used by the health check.
type BreakerStatus interface {
	State() circuitbreaker.State
	Component() string
}

// HealthConfig holds thresholds and probes for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	Breakers         []BreakerStatus
	StartTime        time.Time
	Version          string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc              TravelService
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. healthConfig may be nil, in which case
// only the shutdown flag is consulted.
func NewHandler(svc TravelService, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:          svc,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetRoot handles GET /.
func (h *Handler) GetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Travel Data Aggregator API",
		"description": "Aggregates data from multiple public APIs to provide travel information",
		"data_sources": []string{
			"REST Countries API - Country information",
			"Open-Meteo API - Geocoding and weather data",
		},
		"endpoints": map[string]string{
			"destinations":          "GET /destinations - List popular travel destinations",
			"destination_search":    "GET /destinations/search?country={name} - Resolve a country name to its code",
			"destination_info":      "GET /destinations/{country_code} - Get detailed country info",
			"travel_summary":        "POST /travel-summary - Get aggregated travel summary with weather",
			"travel_summary_byname": "POST /travel-summary-by-name - Same as travel-summary, keyed by country name",
		},
	})
}

// ListDestinations handles GET /destinations.
func (h *Handler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	countries, err := h.svc.Destinations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if countries == nil {
		countries = []models.Country{}
	}
	writeJSON(w, http.StatusOK, countries)
}

// SearchDestination handles GET /destinations/search?country={name}.
func (h *Handler) SearchDestination(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("country")
	if strings.TrimSpace(name) == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "country query parameter is required")
		return
	}
	res, err := h.svc.ResolveByName(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.LoggerFromContext(r.Context()).Debug("destination resolved",
		zap.String("query", name),
		zap.String("code", res.Country.Code),
		zap.String("tier", string(res.Via)))
	writeJSON(w, http.StatusOK, models.CountryCode{Code: res.Country.Code, Name: res.Country.Name})
}

// GetDestination handles GET /destinations/{code}.
func (h *Handler) GetDestination(w http.ResponseWriter, r *http.Request) {
	country, err := h.svc.Destination(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, country)
}

type summaryByCodeRequest struct {
	CountryCode string `json:"country_code"`
}

type summaryByNameRequest struct {
	CountryName string `json:"country_name"`
}

// PostTravelSummary handles POST /travel-summary.
func (h *Handler) PostTravelSummary(w http.ResponseWriter, r *http.Request) {
	var body summaryByCodeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.CountryCode) == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "country_code is required")
		return
	}
	summary, err := h.svc.SummaryByCode(r.Context(), body.CountryCode)
	h.recordOutcome(err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// PostTravelSummaryByName handles POST /travel-summary-by-name.
func (h *Handler) PostTravelSummaryByName(w http.ResponseWriter, r *http.Request) {
	var body summaryByNameRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.CountryName) == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "country_name is required")
		return
	}
	summary, err := h.svc.SummaryByName(r.Context(), body.CountryName)
	h.recordOutcome(err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// recordOutcome feeds the degraded window. Caller mistakes are not upstream errors.
func (h *Handler) recordOutcome(err error) {
	if err == nil {
		degraded.RecordSuccess()
		return
	}
	switch service.KindOf(err) {
	case service.KindInvalidInput, service.KindNotFound:
		degraded.RecordSuccess()
	default:
		degraded.RecordError()
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 and returning
// false when the body is missing or malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "request body must be a JSON object"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", msg)
		return false
	}
	return true
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	version := "dev"
	if h.healthConfig != nil {
		for _, b := range h.healthConfig.Breakers {
			if b.State() == circuitbreaker.StateOpen {
				checks[b.Component()] = "unhealthy"
			} else {
				checks[b.Component()] = "healthy"
			}
		}
		if h.healthConfig.Version != "" {
			version = h.healthConfig.Version
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "travel-aggregator",
		"version":   version,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if result.reason != "" {
		resp["reason"] = result.reason
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptime"] = time.Since(h.healthConfig.StartTime).Truncate(time.Second).String()
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > error rate breach > open breaker > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	if degraded.Breached(h.healthConfig.DegradedWindow, h.healthConfig.DegradedErrorPct) {
		return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
	}
	for _, b := range h.healthConfig.Breakers {
		if b.State() == circuitbreaker.StateOpen {
			return healthResult{"degraded", http.StatusServiceUnavailable, "circuit_open:" + b.Component()}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationIDFromContext(r.Context()),
		},
	})
}

// writeServiceError maps a service error onto status, code and message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapServiceError(err)
	observability.LoggerFromContext(r.Context()).Debug("request failed",
		zap.Int("status", status),
		zap.String("code", code),
		zap.Error(err))
	writeError(w, r, status, code, message)
}

func mapServiceError(err error) (status int, code, message string) {
	var se *service.Error
	if !errors.As(err, &se) {
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Upstream data is temporarily unavailable"
	}
	switch se.Kind {
	case service.KindInvalidInput:
		return http.StatusBadRequest, "INVALID_INPUT", invalidInputMessage(se)
	case service.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND", notFoundMessage(se)
	case service.KindBadUpstreamData:
		return http.StatusBadGateway, "BAD_UPSTREAM_DATA", "Upstream returned incomplete data"
	default:
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", unavailableMessage(se.Stage)
	}
}

func invalidInputMessage(se *service.Error) string {
	if se.Err != nil {
		return se.Err.Error()
	}
	return "invalid input"
}

func notFoundMessage(se *service.Error) string {
	switch se.Stage {
	case service.StageResolveCoordinates:
		return fmt.Sprintf("Capital '%s' could not be located", se.Query)
	case service.StageFetchWeather:
		return fmt.Sprintf("No weather available for '%s'", se.Query)
	}
	msg := fmt.Sprintf("Country '%s' not found", se.Query)
	if len(se.Suggestions) > 0 {
		msg += ". Try: " + strings.Join(se.Suggestions, ", ") + "..."
	}
	return msg
}

func unavailableMessage(stage service.Stage) string {
	switch stage {
	case service.StageResolveCoordinates:
		return "Failed to fetch geocoding data"
	case service.StageFetchWeather:
		return "Failed to fetch weather data"
	default:
		return "Failed to fetch country data"
	}
}
