// Package api serves read-only queries over a built linkage graph.
//
// The result is built before serving starts and never changes while the
// server runs, so handlers share it without locking.
//
//	GET /healthz
//	GET /v1/snapshot
//	GET /v1/abis
//	GET /v1/{abi}/objects
//	GET /v1/{abi}/libraries
//	GET /v1/{abi}/deps?object=PATH[&direct=true]
//	GET /v1/{abi}/rdeps?soname=SONAME
//	GET /v1/{abi}/unresolved
//	GET /metrics
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/linkgraph/pkg/linkgraph"
	"github.com/matzehuels/linkgraph/pkg/observability"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// shutdownTimeout bounds graceful shutdown once the serve context ends.
const shutdownTimeout = 5 * time.Second

// Options configures the router.
type Options struct {
	// Logger receives one line per request. Nil discards.
	Logger *log.Logger

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

type server struct {
	res    *linkgraph.Result
	logger *log.Logger
}

// NewRouter returns the HTTP handler serving queries over res.
func NewRouter(res *linkgraph.Result, opts Options) http.Handler {
	s := &server{res: res, logger: opts.Logger}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/snapshot", s.snapshot)
		r.Get("/abis", s.abis)
		r.Route("/{abi}", func(r chi.Router) {
			r.Get("/objects", s.objects)
			r.Get("/libraries", s.libraries)
			r.Get("/deps", s.deps)
			r.Get("/rdeps", s.rdeps)
			r.Get("/unresolved", s.unresolved)
		})
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks under its
// route pattern.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving linkage queries", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
