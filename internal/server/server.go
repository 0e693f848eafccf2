// Package server exposes the request router over HTTP, streams the queue
// count to websocket badge clients and serves prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yiblet/clipq/internal/router"
)

// maxRequestBody bounds /api/dispatch bodies; thumbnails are the largest
// payloads.
const maxRequestBody = 8 << 20

// Config configures the HTTP server.
type Config struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins lists browser origins besides the server's own that
	// may call the API, such as an extension origin.
	AllowedOrigins []string
}

// Server is the HTTP transport.
type Server struct {
	router  *router.Router
	hub     *Hub
	config  Config
	origins *OriginPolicy
	logger  *slog.Logger

	// base is canceled on shutdown and ends websocket streams.
	base   context.Context
	cancel context.CancelFunc
	srv    *http.Server
}

// New creates a server. Zero timeouts select 10s request and 5s shutdown.
func New(r *router.Router, hub *Hub, config Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 5 * time.Second
	}
	origins := NewOriginPolicy(config.AllowedOrigins)
	hub.SetOriginPolicy(origins)

	base, cancel := context.WithCancel(context.Background())
	return &Server{
		router:  r,
		hub:     hub,
		config:  config,
		origins: origins,
		logger:  logger,
		base:    base,
		cancel:  cancel,
	}
}

// Handler builds the chi route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.origins.Middleware)

	// websocket streams outlive the request timeout
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		s.hub.ServeWS(s.base, w, req)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))

		r.Get("/status", s.handleStatus)
		r.Handle("/metrics", promhttp.Handler())
		r.Route("/api", func(r chi.Router) {
			r.Post("/dispatch", s.handleDispatch)
			r.Get("/queue", s.handleQueue)
		})
	})

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.srv.Serve(ln)
	}()
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-serveErr:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("stopping http server")
	s.cancel()
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := s.router.Dispatch(r.Context(), router.GetCount{})
	body := map[string]any{
		"status":  "ok",
		"time":    time.Now().Format(time.RFC3339),
		"clients": s.hub.Clients(),
	}
	if count, ok := resp.Data.(router.CountData); ok {
		body["count"] = count.Count
		body["capacity"] = count.Capacity
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	// browsers send form and text/plain posts cross-site without a preflight
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, router.Response{
			Error: &router.ErrorBody{Code: router.CodeInvalidParams, Message: "content type must be application/json"},
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, router.Response{
			Error: &router.ErrorBody{Code: router.CodeInvalidParams, Message: "request body too large"},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.router.HandleJSON(r.Context(), body))
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.router.Dispatch(r.Context(), router.GetQueue{}))
}

// requestLogger logs one line per request with the chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
