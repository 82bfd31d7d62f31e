// Package chi exposes the recommendation API over HTTP: the recommend
// and filters endpoints, health, metrics, and the embedded web UI.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/domain"
	domrec "github.com/bookwise/bookwise/internal/domain/recommend"
	"github.com/bookwise/bookwise/internal/metrics"
	"github.com/bookwise/bookwise/internal/present"
	healthuc "github.com/bookwise/bookwise/internal/usecase/health"
	recommenduc "github.com/bookwise/bookwise/internal/usecase/recommend"
	"github.com/bookwise/bookwise/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	recommend     *recommenduc.Service
	health        *healthuc.Service
	presenter     *present.Presenter
	overFetch     int
	defaultLimit  int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the API server. overFetch is the candidate count
// requested from the index per query; defaultLimit applies when the
// request body names no limit.
func NewServer(
	recommend *recommenduc.Service,
	health *healthuc.Service,
	presenter *present.Presenter,
	overFetch, defaultLimit int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend:    recommend,
		health:       health,
		presenter:    presenter,
		overFetch:    overFetch,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"),
		sentinelHandler(domain.ErrUnknownTone, http.StatusBadRequest, "unknown_tone"),
		sentinelHandler(domain.ErrUnknownCategory, http.StatusBadRequest, "unknown_category"),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, "embedding_unavailable"),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, "index_unavailable"),
		sentinelHandler(domain.ErrDeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"),
	}
	return s
}

// recommendRequest is the POST /api/v1/recommend body.
type recommendRequest struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// recommendResponse is the recommend endpoint payload.
type recommendResponse struct {
	Results []present.Card `json:"results"`
	Count   int            `json:"count"`
}

// filtersResponse lists the selectable filter values.
type filtersResponse struct {
	Categories []string `json:"categories"`
	Tones      []string `json:"tones"`
}

// errorResponse is the uniform error payload.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Recommend handles POST /api/v1/recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var body recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	limit := body.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	req, err := domrec.NewRequest(body.Query, body.Category, body.Tone, s.overFetch, limit)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("invalid").Inc()
		s.handleDomainError(w, err)
		return
	}

	recs, err := s.recommend.Recommend(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	cards := s.presenter.Cards(recs)
	writeJSON(w, http.StatusOK, recommendResponse{Results: cards, Count: len(cards)})
}

// Filters handles GET /api/v1/filters.
func (s *Server) Filters(w http.ResponseWriter, _ *http.Request) {
	categories, tones := s.recommend.Filters()
	writeJSON(w, http.StatusOK, filtersResponse{Categories: categories, Tones: tones})
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":  report.Status,
		"checks":  report.Checks,
		"version": version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrUnknownTone,
		domain.ErrUnknownCategory,
		domain.ErrEmbeddingUnavailable,
		domain.ErrIndexUnavailable,
		domain.ErrDeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
