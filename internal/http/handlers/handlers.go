package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pribylovaa/go-blog-admin/internal/identity"
	"github.com/pribylovaa/go-blog-admin/internal/metrics"
	"github.com/pribylovaa/go-blog-admin/internal/service"
	"github.com/pribylovaa/go-blog-admin/internal/session"
)

// LoginLimiter - ограничение попыток входа (internal/limiter).
type LoginLimiter interface {
	Allow(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	Identity  identity.Client
	Service   *service.Service
	Cookies   session.CookiePolicy
	Limiter   LoginLimiter
	Metrics   *metrics.Metrics
	LoginPath string

	now func() time.Time
}

// Option настраивает Handlers.
type Option func(*Handlers)

// WithLimiter включает ограничение попыток входа.
func WithLimiter(l LoginLimiter) Option {
	return func(h *Handlers) { h.Limiter = l }
}

// WithMetrics подключает метрики входа.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handlers) { h.Metrics = m }
}

// WithClock подменяет источник времени подписей "N min ago" (для тестов).
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) { h.now = now }
}

// WithLoginPath задаёт страницу входа для редиректа после выхода.
func WithLoginPath(p string) Option {
	return func(h *Handlers) {
		if p != "" {
			h.LoginPath = p
		}
	}
}

func New(idp identity.Client, svc *service.Service, cookies session.CookiePolicy, opts ...Option) *Handlers {
	h := &Handlers{
		Identity:  idp,
		Service:   svc,
		Cookies:   cookies,
		LoginPath: "/login",
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// writeJSON - единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict - строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// queryInt - целое из query; пустое значение даёт def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, service.ErrInvalidArgument
	}

	return n, nil
}
