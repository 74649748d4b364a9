package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)

	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created at checkout",
		},
	)

	OrderStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_changes_total",
			Help: "Order status transitions applied",
		},
		[]string{"to"},
	)

	PaymentProofUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_proof_uploads_total",
			Help: "Payment proof uploads by outcome",
		},
		[]string{"outcome"},
	)

	CartReconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_reconciliations_total",
			Help: "Post-order cart reconciliations by result",
		},
		[]string{"result"},
	)
)

// Middleware records request counts and latency per chi route pattern.
func Middleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			endpoint := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					endpoint = p
				}
			}
			RequestsTotal.WithLabelValues(serviceName, r.Method, endpoint, strconv.Itoa(ww.Status())).Inc()
			RequestDuration.WithLabelValues(serviceName, r.Method, endpoint).Observe(time.Since(start).Seconds())
		})
	}
}
