//go:build !tinygo

// Package api serves the LED control plane over HTTP. Every command is turned
// into a bus request to the LED service, so the HTTP side never touches a
// driver directly.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"ledcode-go/bus"
	"ledcode-go/internal/logging"
)

const defaultTimeout = 5 * time.Second

type Options struct {
	Conn *bus.Connection
	// Timeout bounds each bus request. Blink holds the reply until the
	// pattern has finished, so it must cover count*delay.
	Timeout           time.Duration
	PrometheusHandler http.Handler
}

type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	conn       *bus.Connection
	timeout    time.Duration
	logger     *slog.Logger
}

func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("ledcode API", "1.0.0")
	config.Info.Description = "GPIO LED control"
	config.Servers = []*huma.Server{}
	api := humago.New(mux, config)

	s := &Server{
		api:     api,
		mux:     mux,
		conn:    opts.Conn,
		timeout: opts.Timeout,
		logger:  logging.GetLogger("api"),
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}

	api.UseMiddleware(s.logRequests)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	s.registerRoutes()
	s.registerLEDRoutes()
	return s
}

// Handler is the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) Start(addr string) error {
	s.logger.Info("starting API server", "addr", addr)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("stopping API server")
	return s.httpServer.Shutdown(ctx)
}

type HealthResponse struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Tags:        []string{"health"},
	}, func(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
		out := &HealthResponse{}
		out.Body.Status = "ok"
		return out, nil
	})
}

func (s *Server) logRequests(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)
	status := ctx.Status()
	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.URL().Path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	}
	level := slog.LevelDebug
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx.Context(), level, "http request", attrs...)
}
