package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/go-blog-admin/internal/pkg/log"
)

// Timeout задаёт общий дедлайн запроса, если его ещё нет; d <= 0 - no-op.
//
// Дедлайн покрывает и вызовы провайдера из гарда (GetUser, затем
// RefreshSession): истёкший контекст приводит к RefreshFailed, то есть
// к очистке cookie и редиректу, а не к пропуску запроса.
// Если обработчик вернулся после дедлайна, пишется request_deadline_exceeded.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logctx.From(ctx).Warn("request_deadline_exceeded",
					"path", r.URL.Path,
					"timeout", d,
				)
			}
		})
	}
}
