package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accounting/internal/auth"
	"accounting/internal/config"
	"accounting/internal/handlers"
	applog "accounting/internal/log"
	"accounting/internal/models"
	"accounting/internal/records"
	"accounting/internal/session"
	"accounting/internal/storage"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired components of the server.
type app struct {
	db       *storage.DB
	creds    *auth.Credentials
	sessions *session.Manager
	handlers *handlers.Handlers
	limiter  *handlers.AuthLimiter
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var store session.Store = session.NewMemoryStore()
	if cfg.SessionStore == config.SessionStoreSQLite {
		store = db
	}

	creds := auth.NewCredentials(db)
	sessions := session.NewManager(store, cfg.SessionDuration, cfg.SecureCookie)
	recs := records.NewService(db)

	return &app{
		db:       db,
		creds:    creds,
		sessions: sessions,
		handlers: handlers.NewHandlers(creds, recs, sessions, cfg.TemplateDir, cfg.SecureCookie),
		limiter:  handlers.NewAuthLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, cfg.TrustedProxy),
	}, nil
}

func (a *app) close() error {
	return a.db.Close()
}

// bootstrapAdmin creates the configured account if it does not exist yet.
func (a *app) bootstrapAdmin(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminUser == "" {
		return nil
	}
	user, err := a.creds.Register(ctx, cfg.AdminUser, cfg.AdminPassword)
	switch {
	case errors.Is(err, models.ErrUsernameTaken):
		return nil
	case err != nil:
		return fmt.Errorf("create admin user: %w", err)
	}
	applog.FromContext(ctx).Info("Admin user created", "username", user.Username, applog.FieldUserID, user.ID)
	return nil
}

func setupRouter(a *app, staticDir string) *http.ServeMux {
	h := a.handlers
	requireSession := a.sessions.Require
	limit := a.limiter.Middleware

	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /{$}", h.Home)

	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.Handle("POST /register", limit(http.HandlerFunc(h.Register)))
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.Handle("POST /login", limit(http.HandlerFunc(h.Login)))
	mux.HandleFunc("GET /logout", h.Logout)

	mux.Handle("GET /index", requireSession(http.HandlerFunc(h.Index)))
	mux.Handle("POST /index", requireSession(http.HandlerFunc(h.Index)))
	mux.Handle("GET /show_all_records", requireSession(http.HandlerFunc(h.ShowAllRecords)))
	mux.Handle("POST /show_all_records", requireSession(http.HandlerFunc(h.ShowAllRecords)))
	mux.Handle("GET /delete/{record_id}", requireSession(http.HandlerFunc(h.Delete)))

	return mux
}

func run() error {
	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = applog.WithLogger(ctx, logger)

	if err := a.bootstrapAdmin(ctx, cfg); err != nil {
		return err
	}
	if n, err := a.db.UserCount(ctx); err == nil {
		logger.WithComponent(applog.ComponentStorage).Info("Database ready", "path", cfg.DBPath, "users", n, "session_store", cfg.SessionStore)
	}

	srv := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        applog.Middleware(logger)(setupRouter(a, cfg.StaticDir)),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.sessions.Janitor(gctx, cfg.SessionCleanupInterval)
	})
	g.Go(func() error {
		return a.limiter.Janitor(gctx, time.Minute)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
