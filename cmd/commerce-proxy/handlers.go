package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agentcommerce/commerce-api-client/pkg/apierror"
	"github.com/agentcommerce/commerce-api-client/pkg/client"
)

// server holds the proxy's HTTP handlers.
type server struct {
	client *client.Client
	logger zerolog.Logger
}

func newServer(c *client.Client) *server {
	return &server{
		client: c,
		logger: log.With().Str("component", "proxy").Logger(),
	}
}

// routes builds the proxy's HTTP mux.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/products/search", s.handleSearchProducts)
	mux.HandleFunc("GET /api/products/{id}", s.handleGetProduct)
	mux.HandleFunc("GET /api/orders", s.handleListOrders)
	mux.HandleFunc("GET /api/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("PUT /api/inventory/{sku}", s.handleUpdateInventory)
	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)

	return s.withRequestID(mux)
}

// withRequestID tags every request with an ID for log correlation.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.client.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, `{"error": "missing q parameter"}`, http.StatusBadRequest)
		return
	}

	page, err := s.client.SearchProducts(r.Context(), query, r.URL.Query().Get("page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.client.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := s.client.ListOrders(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *server) handleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	var update client.InventoryUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	product, err := s.client.UpdateInventory(r.Context(), r.PathValue("sku"), update.Quantity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.client.Cache().GetStats())
}

func (s *server) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

// writeError maps a translated client error onto a proxy response.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	if retryAfter := apierror.RetryAfterOf(err); retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}

	body := map[string]any{
		"error": err.Error(),
		"kind":  apierror.KindOf(err).String(),
	}
	s.writeJSON(w, status, body)
}

// statusFor picks the proxy's HTTP status for an error kind. Upstream faults
// become 502 so callers can tell proxy failures from upstream ones.
func statusFor(err error) int {
	switch apierror.KindOf(err) {
	case apierror.KindAuthentication:
		return http.StatusUnauthorized
	case apierror.KindAuthorization:
		return http.StatusForbidden
	case apierror.KindValidation:
		return http.StatusBadRequest
	case apierror.KindResourceNotFound:
		return http.StatusNotFound
	case apierror.KindRateLimitExceeded, apierror.KindThrottling:
		return http.StatusTooManyRequests
	case apierror.KindCircuitOpen:
		return http.StatusServiceUnavailable
	case apierror.KindServer, apierror.KindNetwork, apierror.KindMarketplace:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
