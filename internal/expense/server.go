package expense

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server handles HTTP requests for scanning and expenses
type Server struct {
	service   *Service
	basicAuth BasicAuth
	gatherer  prometheus.Gatherer
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux. A nil gatherer disables /metrics.
func NewServer(service *Service, basicAuth BasicAuth, gatherer prometheus.Gatherer) *Server {
	return NewServerWithMux(service, basicAuth, gatherer, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, basicAuth BasicAuth, gatherer prometheus.Gatherer, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		gatherer:  gatherer,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Invoice Scanner"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/scanner", s.requireAuth(s.handleScan))
	s.mux.HandleFunc("POST /api/categorize", s.requireAuth(s.handleCategorize))

	s.mux.HandleFunc("GET /api/invoices/{id}", s.requireAuth(s.handleGetExpense))
	s.mux.HandleFunc("PUT /api/invoices/{id}", s.requireAuth(s.handleUpdateExpense))
	s.mux.HandleFunc("DELETE /api/invoices/{id}", s.requireAuth(s.handleDeleteExpense))
	s.mux.HandleFunc("GET /api/invoices", s.requireAuth(s.handleListExpenses))
	s.mux.HandleFunc("POST /api/invoices", s.requireAuth(s.handleCreateExpense))

	if s.gatherer != nil {
		metrics := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
		s.mux.HandleFunc("GET /metrics", s.requireAuth(metrics.ServeHTTP))
	}
}

// Handler returns the mux wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
