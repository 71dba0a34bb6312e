// Package server exposes the equity engine over HTTP and WebSocket.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/internal/store"
)

// Estimator produces equity reports.
type Estimator interface {
	Estimate(ctx context.Context, req equity.Request) (*equity.Report, error)
	QuickEstimate(ctx context.Context, req equity.Request) (float64, error)
}

// History lists previously recorded estimates.
type History interface {
	Recent(ctx context.Context, limit int) ([]store.Estimate, error)
}

// Server is the HTTP API.
type Server struct {
	addr       string
	engine     Estimator
	history    History
	validator  *Validator
	upgrader   websocket.Upgrader
	origins    []string
	maxBatches int
	logger     zerolog.Logger
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the origins allowed to call /api/ from a browser.
// "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithMaxBatches caps num_batches in requests.
func WithMaxBatches(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatches = n
		}
	}
}

// WithHistory enables GET /api/history.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithLogger sets the server's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server listening on addr.
func New(addr string, engine Estimator, opts ...Option) (*Server, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{
		addr:       addr,
		engine:     engine,
		validator:  validator,
		maxBatches: 10 * equity.DefaultBatches,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the server's routes wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /favicon.ico", s.handleFavicon)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/simulate", s.handleSimulateInfo)
	mux.HandleFunc("POST /api/simulate", s.handleSimulate)
	mux.HandleFunc("POST /api/estimate", s.handleEstimate)
	mux.HandleFunc("GET /api/simulate/stream", s.handleStream)
	if s.history != nil {
		mux.HandleFunc("GET /api/history", s.handleHistory)
	}
	return s.logRequests(s.cors(mux))
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

// checkOrigin admits allow-listed origins as well as same-host and
// non-browser clients.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.originAllowed(origin) {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack passes through to the underlying writer for WebSocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
