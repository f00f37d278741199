// Package diag serves a read-only HTTP view of a running greenpatch
// environment: active primitives, tracked threads, offload pool state and
// Prometheus metrics.
package diag

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/internal/logger"
	"github.com/baxromumarov/greenpatch/threading"
	"github.com/baxromumarov/greenpatch/tpool"
)

// Sources is what the diagnostics endpoints read from. Any field may be
// nil; the matching endpoint then reports an empty view.
type Sources struct {
	Env      *greenpatch.Environment
	Tracker  *threading.Tracker
	Pool     *tpool.Pool
	Gatherer prometheus.Gatherer
}

// NewRouter creates the chi router with middleware and routes.
//
// Routes:
//   - GET /primitives - activation state per primitive
//   - GET /threads - threads visible through the shim
//   - GET /offload - offload pool statistics
//   - GET /metrics - Prometheus exposition
func NewRouter(src Sources) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := &handler{src: src}
	r.Get("/primitives", h.primitives)
	r.Get("/threads", h.threads)
	r.Get("/offload", h.offload)

	if src.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(src.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/primitives", http.StatusTemporaryRedirect)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("diag request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
