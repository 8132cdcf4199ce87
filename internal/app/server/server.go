package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainauth "tipsheet/internal/domain/auth"
	"tipsheet/internal/domain/roster"
	"tipsheet/internal/domain/timesheet"
	"tipsheet/internal/platform/config"
	"tipsheet/internal/platform/db"
	"tipsheet/internal/platform/email"
	"tipsheet/internal/platform/jobs"
	"tipsheet/internal/platform/lock"
	"tipsheet/internal/platform/metrics"
	"tipsheet/internal/platform/sheets"
	authhandler "tipsheet/internal/transport/http/handlers/auth"
	timesheethandler "tipsheet/internal/transport/http/handlers/timesheet"
	tipshandler "tipsheet/internal/transport/http/handlers/tips"
	"tipsheet/internal/transport/http/api"
	"tipsheet/internal/transport/http/middleware"
)

type App struct {
	Config    config.Config
	Backend   sheets.Backend
	Timesheet *timesheet.Service
	Auth      *domainauth.Service
	Jobs      *jobs.Service
	Metrics   *metrics.Collector
	Router    http.Handler

	closers []func() error
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("shutdown step failed", "err", err)
		}
	}
}

// OpenBackend connects the configured spreadsheet store. The returned func
// releases it.
func OpenBackend(ctx context.Context, cfg config.Config) (sheets.Backend, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendGoogle:
		g, err := sheets.NewGoogle(ctx, cfg.GoogleSheetID, []byte(cfg.ServiceAccountJSON))
		if err != nil {
			return nil, nil, err
		}
		return g, func() error { return nil }, nil
	case config.BackendWorkbook:
		if cfg.WorkbookPath == "" {
			wb := sheets.NewMemoryWorkbook()
			return wb, wb.Close, nil
		}
		wb, err := sheets.OpenWorkbook(cfg.WorkbookPath)
		if err != nil {
			return nil, nil, err
		}
		return wb, wb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// OpenLocker returns the keyed lock matching LOCK_BACKEND.
func OpenLocker(ctx context.Context, cfg config.Config) (lock.Locker, func() error, error) {
	if cfg.LockBackend != config.LockPostgres {
		return lock.NewLocal(), func() error { return nil }, nil
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("lock database: %w", err)
	}
	if err := db.Ping(ctx, pool, 5*time.Second); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("lock database: %w", err)
	}
	return lock.NewPostgres(pool), closePool(pool), nil
}

func closePool(pool *pgxpool.Pool) func() error {
	return func() error {
		pool.Close()
		return nil
	}
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		slog.Warn("JWT_SECRET not set; sessions will not survive a restart")
	}

	app := &App{Config: cfg, Metrics: metrics.New()}

	raw, closeBackend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeBackend)
	app.Backend = sheets.Observe(raw, app.Metrics.ObserveStore)

	locker, closeLocker, err := OpenLocker(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeLocker)

	store := timesheet.NewStore(app.Backend, locker, timesheet.WithFormulas(cfg.InjectFormulas))
	app.Timesheet = timesheet.NewService(store, loc, cfg.StoreTimeout)
	app.Auth = domainauth.NewService(roster.NewSource(app.Backend), domainauth.Config{
		ManagerPassword:     cfg.ManagerPassword,
		ManagerPasswordHash: cfg.ManagerPasswordHash,
		JWTSecret:           cfg.JWTSecret,
		SessionTTL:          cfg.SessionTTL,
		StoreTimeout:        cfg.StoreTimeout,
	})
	app.Jobs = jobs.New(cfg, app.Timesheet, email.New(cfg))
	app.Router = app.routes()
	return app, nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.Origins()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.CredentialRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]any{
			"service":  "tipsheet",
			"backend":  cfg.StoreBackend,
			"timezone": a.Timesheet.Location().String(),
			"requests": a.Metrics.Snapshot(),
		}, middleware.GetRequestID(r.Context()))
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), cfg.StoreTimeout)
		defer cancel()
		title, err := a.Backend.Title(ctx)
		if err != nil {
			slog.Warn("readiness check failed", "err", err)
			w.Header().Set("Retry-After", "5")
			api.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "spreadsheet not reachable", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]any{
			"status":      "ready",
			"spreadsheet": title,
			"month":       a.Timesheet.MonthStatus(a.Timesheet.Today()),
			"jobs":        a.Jobs.Runs(),
		}, middleware.GetRequestID(r.Context()))
	})

	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute*10, time.Minute))

		authhandler.NewHandler(a.Auth).RegisterRoutes(r)
		timesheethandler.NewHandler(a.Timesheet, a.Auth).RegisterRoutes(r)
		tipshandler.NewHandler(a.Timesheet, a.Jobs).RegisterRoutes(r)
	})

	return router
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func configureLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if !cfg.IsProduction() {
		opts.Level = slog.LevelDebug
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
}

func Run() {
	cfg := config.Load()
	configureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.StoreTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("tipsheet server listening", "addr", cfg.Addr, "backend", cfg.StoreBackend, "locks", cfg.LockBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "err", err)
	}
}
