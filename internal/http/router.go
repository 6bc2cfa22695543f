package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-blog-admin/internal/http/handlers"
	"github.com/pribylovaa/go-blog-admin/internal/http/middleware"
	"github.com/pribylovaa/go-blog-admin/internal/metrics"
	"github.com/pribylovaa/go-blog-admin/internal/session"
)

// Options - параметры сборки HTTP-роутера.
type Options struct {
	Logger    *slog.Logger
	Timeout   time.Duration
	Metrics   *metrics.Metrics
	Cookies   session.CookiePolicy
	LoginPath string
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
// Гард стоит последним: к моменту проверки сессии уже есть request_id,
// логгер запроса и общий дедлайн.
func NewRouter(h *handlers.Handlers, guard middleware.Evaluator, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(opts.Metrics),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}
	root.Use(middleware.Session(guard, middleware.SessionOptions{
		Cookies:   opts.Cookies,
		LoginPath: opts.LoginPath,
		Metrics:   opts.Metrics,
	}))

	registerRoutes(root, h)
	return root
}

// registerRoutes - единая точка регистрации всех эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// auth
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/logout", h.Logout)

	// public content
	r.Get("/api/posts", h.PublishedPosts)
	r.Get("/api/posts/{slug}", h.PublishedPostBySlug)

	// admin (под гардом)
	r.Get("/admin", h.Dashboard)
	r.Route("/admin/api", func(r chi.Router) {
		r.Get("/posts", h.ListPosts)
		r.Post("/posts", h.CreatePost)
		r.Get("/posts/{id}", h.GetPost)
		r.Patch("/posts/{id}", h.UpdatePost)
		r.Delete("/posts/{id}", h.DeletePost)

		r.Post("/covers", h.UploadCover)
		r.Delete("/covers", h.DeleteCover)

		r.Get("/activity", h.ListActivity)
	})
}
