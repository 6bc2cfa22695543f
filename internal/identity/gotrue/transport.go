package gotrue

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/requestid"
)

// roundTripperFunc - адаптер функции к http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// withMetadata добавляет к исходящему запросу:
//   - X-Request-Id (из контекста входящего запроса, иначе новый UUID);
//   - User-Agent (если задан);
//   - apikey (если задан).
func withMetadata(next http.RoundTripper, userAgent, apiKey string) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		r = r.Clone(r.Context())

		rid := requestid.From(r.Context())
		if rid == "" {
			rid = uuid.NewString()
		}
		r.Header.Set(requestid.Header, rid)

		if userAgent != "" {
			r.Header.Set("User-Agent", userAgent)
		}
		if apiKey != "" {
			r.Header.Set("apikey", apiKey)
		}

		return next.RoundTrip(r)
	})
}

// withLogging пишет одну запись на вызов в request-scoped логгер:
// msg="gotrue", method, path, status, dur. Тело и заголовки с токенами не логируются.
func withLogging(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)

		l := log.From(r.Context())

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", r.Header.Get(requestid.Header)),
			slog.Duration("dur", time.Since(start)),
		}

		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
			l.LogAttrs(r.Context(), slog.LevelWarn, "gotrue", attrs...)
			return nil, err
		}

		attrs = append(attrs, slog.Int("status", resp.StatusCode))
		l.LogAttrs(r.Context(), slog.LevelDebug, "gotrue", attrs...)

		return resp, nil
	})
}
