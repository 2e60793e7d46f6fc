package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/weekplan/internal/endpoint"
	"github.com/example/weekplan/internal/logging"
)

// Server is the web HTTP server
type Server struct {
	addr     string
	handlers *Handlers
	mux      *http.ServeMux
	metrics  http.Handler
	logger   *zap.Logger
	srv      *http.Server
}

// NewServer creates a new web server. metrics may be nil.
func NewServer(addr string, endpoints endpoint.Endpoints, metrics http.Handler, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	s := &Server{
		addr:     addr,
		handlers: NewHandlers(endpoints, logger),
		mux:      http.NewServeMux(),
		metrics:  metrics,
		logger:   logger,
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/plans", s.corsMiddleware(s.routePlans))
	s.mux.HandleFunc("/healthz", s.handlers.Health)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(indexHTML))
	})
}

// routePlans routes requests to the appropriate handler based on the method
func (s *Server) routePlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handlers.GeneratePlan(w, r)
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.mux
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>weekplan</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 720px; margin: 80px auto; color: #333; }
        pre { background: #1f2937; color: #f9fafb; padding: 15px; border-radius: 4px; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>weekplan</h1>
    <p>Generate a weekly plan:</p>
    <pre>curl -X POST localhost:8080/api/plans -d '{
  "user_id": "u1",
  "week_start_date": "2024-01-01",
  "capacity_hours": 40,
  "project_allocations": {"p1": 60, "p2": 40}
}'</pre>
</body>
</html>
`
