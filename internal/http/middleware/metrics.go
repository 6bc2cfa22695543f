package middleware

import (
	"net/http"
	"time"

	"github.com/pribylovaa/go-blog-admin/internal/metrics"
)

// Metrics считает запросы и их длительность. nil-метрики допустимы.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)
			m.HTTPRequest(r.Method, sw.Status(), time.Since(start))
		})
	}
}
