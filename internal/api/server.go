// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the document scan service.
package api

import (
	"context"
	"docscan/internal/api/handler/v1handler"
	"docscan/internal/config"
	"docscan/pkg/controller"
	"docscan/pkg/logger"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// v1Spec contains the embedded OpenAPI specification for version 1 of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// Options holds configuration for the HTTP server and its dependencies.
// It is typically created from a config.Config via NewOptions.
// All durations are used to configure server timeouts, and zero values
// should be considered as using the defaults provided by net/http where applicable.
type Options struct {
	// SecHandlerOptions configures bearer authentication for v1 endpoints.
	// Without a public key the v1 API is served unauthenticated.
	SecHandlerOptions *v1handler.SecHandlerOptions

	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	// It bounds how long a blocking scan request may take.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
}

// NewOptions constructs an Options value from the provided application configuration.
// It maps HTTP server-related settings from config.Config to the Options used by the API server.
func NewOptions(cfg *config.Config) Options {
	return Options{
		SecHandlerOptions: v1handler.NewSecHandlerOptions(cfg),

		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
	}
}

type Deps struct {
	v1handler.Deps
}

// NewHandler builds the root router:
// - Prometheus metrics endpoint (MetricsPath)
// - Embedded OpenAPI v1 spec and Swagger UI
// - v1 API routes, behind bearer authentication when a key is configured
// - pprof endpoints for profiling
// Every route is wrapped with panic recovery, logging and CORS middlewares.
func NewHandler(deps Deps, opts Options) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(controller.WithLogger, middleware.Recoverer, controller.CORS())

	// prometheus metrics server
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.Handle(metricsPath, promhttp.Handler())

	// v1 specs file
	r.Get("/specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// v1 api swagger playground
	r.Handle("/v1/docs/*", v5emb.New(
		"Document Scan Service",
		"/specs/v1.yaml",
		"/v1/docs/",
	))

	// v1 api
	h := v1handler.New(deps.Deps)
	var auth func(http.Handler) http.Handler
	if opts.SecHandlerOptions != nil && opts.SecHandlerOptions.PublicKey != "" {
		secHandler, err := v1handler.NewSecHandler(opts.SecHandlerOptions)
		if err != nil {
			return nil, fmt.Errorf("could not create sec handler: %w", err)
		}
		auth = secHandler.Middleware(h)
	} else {
		logger.Warn(context.Background(), "no JWT public key configured, v1 API is unauthenticated")
	}
	r.Route("/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(auth)
		}
		h.Routes(r)
	})

	// pprof
	r.Mount("/debug/pprof", controller.Pprof())

	return r, nil
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	handler, err := NewHandler(deps, opts)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
		ErrorLog:          logger.StdLogger(context.Background(), slog.LevelError),
	}, nil
}
