package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oldgoods/thriftstore/internal/metrics"
)

func NewRouter(serviceName, uploadDir string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(metrics.Middleware(serviceName))
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// proof and product images
	if uploadDir != "" {
		fs := http.StripPrefix("/"+uploadDir+"/", http.FileServer(http.Dir(uploadDir)))
		r.Get("/"+uploadDir+"/*", fs.ServeHTTP)
	}
	return r
}
