package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MikeSquared-Agency/souli/internal/ingest"
	"github.com/MikeSquared-Agency/souli/internal/store"
)

const serviceName = "souli-ingestion-api"

type Runner interface {
	Run(ctx context.Context, links []string) (*ingest.Report, error)
}

type Index interface {
	Search(ctx context.Context, query string, k int, threshold float64) ([]map[string]any, error)
	Info(ctx context.Context) (*store.CollectionStats, error)
}

// CircuitState reports the model circuit breaker state.
type CircuitState interface {
	State() string
}

// Connection reports whether the event bus is reachable.
type Connection interface {
	Connected() bool
}

// Status is reported by GET /api/v1/status. Circuit and Events are optional;
// a nil Events means the service runs without NATS.
type Status struct {
	LLMType    string
	Model      string
	Collection string
	Circuit    CircuitState
	Events     Connection
}

type Server struct {
	router  *chi.Mux
	port    int
	runner  Runner
	index   Index
	status  Status
	metrics http.Handler
	logger  *slog.Logger
	srv     *http.Server
}

// NewServer builds the router. metricsHandler may be nil, in which case
// /metrics is not mounted.
func NewServer(port int, runner Runner, index Index, status Status, metricsHandler http.Handler, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	s := &Server{
		router:  router,
		port:    port,
		runner:  runner,
		index:   index,
		status:  status,
		metrics: metricsHandler,
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Get("/collection-info", s.collectionInfo)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.statusInfo)
		r.Post("/ingest", s.ingest)
		r.Post("/query", s.query)
	})
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler)
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
}

func (s *Server) statusInfo(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"agent":            "souli",
		"service":          serviceName,
		"llm_type":         s.status.LLMType,
		"model":            s.status.Model,
		"collection":       s.status.Collection,
		"events":           s.status.Events != nil,
		"events_connected": false,
	}
	if s.status.Circuit != nil {
		body["model_circuit"] = s.status.Circuit.State()
	}
	if s.status.Events != nil {
		body["events_connected"] = s.status.Events.Connected()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) collectionInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.index.Info(r.Context())
	if err != nil {
		s.logger.Error("collection info failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "vector store unavailable: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}
