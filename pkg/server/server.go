// Package server exposes the node catalog, graph storage, validation,
// auto-layout and rendering over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /v1/types                 ?category=&tag=&q=
//	GET    /v1/types/{typeID}
//	POST   /v1/graphs/validate
//	GET    /v1/graphs
//	POST   /v1/graphs
//	GET    /v1/graphs/{id}
//	PUT    /v1/graphs/{id}
//	DELETE /v1/graphs/{id}
//	POST   /v1/graphs/{id}/layout
//	GET    /v1/graphs/{id}/svg       ?detailed=&format=
//
// Failures are answered with {"error": {"code", "message", "details"}} and
// the status of the error code.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	flowerrors "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
	"github.com/matzehuels/flowcanvas/pkg/registry"
	"github.com/matzehuels/flowcanvas/pkg/store"
)

// Defaults for [Options].
const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 4 << 20
)

// Options configures a [Server].
type Options struct {
	Logger *log.Logger
	// Layout holds the defaults for layout requests that leave fields unset.
	Layout          layout.Options
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.Layout = o.Layout.WithDefaults()
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return o
}

// Server is the HTTP API.
type Server struct {
	registry *registry.Registry
	store    store.Store
	runner   *pipeline.Runner
	opts     Options
	logger   *log.Logger
	router   chi.Router
}

// New creates a server. The runner's catalog should be reg.
func New(reg *registry.Registry, st store.Store, runner *pipeline.Runner, opts Options) *Server {
	opts = opts.withDefaults()
	s := &Server{
		registry: reg,
		store:    st,
		runner:   runner,
		opts:     opts,
		logger:   opts.Logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/types", func(r chi.Router) {
			r.Get("/", s.handleListTypes)
			r.Get("/{typeID}", s.handleGetType)
		})
		r.Route("/graphs", func(r chi.Router) {
			r.Post("/validate", s.handleValidate)
			r.Get("/", s.handleListGraphs)
			r.Post("/", s.handleCreateGraph)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetGraph)
				r.Put("/", s.handleUpdateGraph)
				r.Delete("/", s.handleDeleteGraph)
				r.Post("/layout", s.handleLayout)
				r.Get("/svg", s.handleRender)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: apiError{
			Code:    flowerrors.ErrCodeUnsupported,
			Message: fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path),
		}})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
