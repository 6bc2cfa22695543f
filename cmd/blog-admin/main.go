package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-blog-admin/internal/config"
	adminhttp "github.com/pribylovaa/go-blog-admin/internal/http"
	"github.com/pribylovaa/go-blog-admin/internal/http/handlers"
	"github.com/pribylovaa/go-blog-admin/internal/identity"
	"github.com/pribylovaa/go-blog-admin/internal/identity/gotrue"
	"github.com/pribylovaa/go-blog-admin/internal/identity/memory"
	"github.com/pribylovaa/go-blog-admin/internal/limiter"
	"github.com/pribylovaa/go-blog-admin/internal/metrics"
	"github.com/pribylovaa/go-blog-admin/internal/service"
	"github.com/pribylovaa/go-blog-admin/internal/session"
	"github.com/pribylovaa/go-blog-admin/internal/storage/minio"
	"github.com/pribylovaa/go-blog-admin/internal/storage/mongo"
	"github.com/pribylovaa/go-blog-admin/internal/storage/postgres"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting blog-admin", "env", cfg.Env, "identity_provider", cfg.Identity.Provider)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	idp, err := newIdentity(cfg.Identity)
	if err != nil {
		log.Error("identity_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer initCancel()

	// Хранилища опциональны: без них гард и вход работают,
	// а зависящие эндпойнты отвечают 503.
	var deps service.Deps

	if cfg.DB.URL != "" {
		pg, err := postgres.New(initCtx, cfg.DB.URL)
		if err != nil {
			log.Error("postgres_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer pg.Close()

		deps.Posts, deps.Profiles = pg, pg
		log.Info("postgres_connected")
	}

	if cfg.Mongo.URL != "" {
		mg, err := mongo.New(initCtx, cfg.Mongo.URL)
		if err != nil {
			log.Error("mongo_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if cerr := mg.Close(closeCtx); cerr != nil {
				log.Warn("mongo_close_failed", slog.String("err", cerr.Error()))
			}
		}()

		deps.Activity = mg
		log.Info("mongo_connected")
	}

	if cfg.S3.Endpoint != "" {
		covers, err := minio.New(initCtx, cfg.S3)
		if err != nil {
			log.Error("minio_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}

		deps.Covers = covers
		log.Info("minio_connected", slog.String("bucket", cfg.S3.Bucket))
	}

	m := metrics.MustNew(prometheus.DefaultRegisterer)
	cookies := session.CookiePolicy{
		AccessName:  cfg.Session.AccessCookie,
		RefreshName: cfg.Session.RefreshCookie,
		MaxAge:      cfg.Session.MaxAge,
		Production:  cfg.IsProduction(),
	}

	hopts := []handlers.Option{
		handlers.WithMetrics(m),
		handlers.WithLoginPath(cfg.Session.LoginPath),
	}

	if cfg.Redis.URL != "" {
		lim, err := limiter.NewFromURL(initCtx, cfg.Redis.URL, limiter.Config{
			MaxAttempts: cfg.Redis.MaxAttempts,
			Window:      cfg.Redis.Window,
		})
		if err != nil {
			log.Error("redis_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if cerr := lim.Close(); cerr != nil {
				log.Warn("redis_close_failed", slog.String("err", cerr.Error()))
			}
		}()

		hopts = append(hopts, handlers.WithLimiter(lim))
		log.Info("login_limiter_enabled", slog.Int("max_attempts", cfg.Redis.MaxAttempts))
	}

	svc := service.New(deps, cfg.Covers)
	h := handlers.New(idp, svc, cookies, hopts...)
	guard := session.NewGuard(session.NewRoutes(cfg.Session.ProtectedPrefix), idp)

	apiHandler := adminhttp.NewRouter(h, guard, adminhttp.Options{
		Logger:    log,
		Timeout:   cfg.Timeouts.Service,
		Metrics:   m,
		Cookies:   cookies,
		LoginPath: cfg.Session.LoginPath,
	})

	var ready int32 // 0 - not ready; 1 - ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("blog_admin_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// newIdentity выбирает провайдера идентичности по конфигурации.
func newIdentity(cfg config.IdentityConfig) (identity.Client, error) {
	switch cfg.Provider {
	case config.ProviderMemory:
		return memory.New(cfg.Memory)
	default:
		return gotrue.New(cfg)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
