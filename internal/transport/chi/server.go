package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/resolution"
	logpkg "github.com/TheVirusNVGM/modcurator/internal/logger"
	"github.com/TheVirusNVGM/modcurator/internal/metrics"
	healthuc "github.com/TheVirusNVGM/modcurator/internal/usecase/health"
	retrievaluc "github.com/TheVirusNVGM/modcurator/internal/usecase/retrieval"
	"github.com/TheVirusNVGM/modcurator/internal/version"
)

type retrievalUseCase interface {
	Retrieve(ctx context.Context, req retrievaluc.Request) (retrievaluc.Outcome, error)
}

type resolverUseCase interface {
	Resolve(ctx context.Context, selected []mod.Mod, p platform.Platform) (resolution.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the retrieval and resolution API.
type Server struct {
	retrieval     retrievalUseCase
	resolver      resolverUseCase
	mods          ModLookup
	health        healthUseCase
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. mods may be nil; resolve requests
// naming mods by id are then rejected.
func NewServer(
	retrieval retrievalUseCase,
	resolver resolverUseCase,
	mods ModLookup,
	health healthUseCase,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		retrieval: retrieval,
		resolver:  resolver,
		mods:      mods,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		invalidRequestHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrCatalogUnavailable, http.StatusServiceUnavailable, CodeCatalogUnavailable),
	}
	return s
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Post("/v1/retrieve", s.Retrieve)
	r.Post("/v1/resolve", s.Resolve)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeRetrieveRequest(r.Body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r = r.WithContext(logpkg.WithFields(r.Context(),
		zap.String("mc_version", req.Platform.MCVersion),
		zap.String("loader", string(req.Platform.Loader)),
		zap.Int("queries", len(req.Queries)),
	))
	outcome, err := s.retrieval.Retrieve(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewRetrieveResponse(&outcome))
}

// Resolve handles POST /v1/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	selected, p, unknown, err := DecodeResolveRequest(r.Context(), r.Body, s.mods)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r = r.WithContext(logpkg.WithFields(r.Context(),
		zap.String("mc_version", p.MCVersion),
		zap.String("loader", string(p.Loader)),
		zap.Int("selected", len(selected)),
	))
	res, err := s.resolver.Resolve(r.Context(), selected, p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewResolveResponse(&res, unknown))
}

// HealthCheck handles GET /health. Degraded still answers 200: keyword
// retrieval and resolution keep working without the embedding provider.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
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
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// invalidRequestHandler answers 400 with the full message; it only carries
// caller input.
func invalidRequestHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel
// error and answers with the sentinel text only.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
