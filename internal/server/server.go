// Package server собирает HTTP сервер: маршруты, middleware и фоновые
// задачи обслуживания.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/addrlens/addrlens/internal/config"
	"github.com/addrlens/addrlens/internal/mailer"
	"github.com/addrlens/addrlens/internal/proxy"
	"github.com/addrlens/addrlens/internal/quota"
	"github.com/addrlens/addrlens/internal/server/handlers"
	"github.com/addrlens/addrlens/internal/server/middleware"
	"github.com/addrlens/addrlens/internal/server/storage/sqlite"
)

const (
	shutdownTimeout = 10 * time.Second

	// Интервал фоновых зачисток: просроченные сессии в SQLite
	// и протухшие записи в кеше прокси
	sweepInterval = time.Hour

	// Лимиты на чувствительные к перебору эндпоинты
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Server is the addrlens HTTP server
type Server struct {
	logger     *slog.Logger
	cfg        *config.Config
	store      *sqlite.Storage
	cache      *proxy.Cache
	httpServer *http.Server
}

// New assembles the server: handlers, middleware and routes
func New(logger *slog.Logger, cfg *config.Config, store *sqlite.Storage, cache *proxy.Cache, mail mailer.Mailer) *Server {
	s := &Server{
		logger: logger,
		cfg:    cfg,
		store:  store,
		cache:  cache,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(mail),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// routes собирает все маршруты и навешивает middleware
func (s *Server) routes(mail mailer.Mailer) http.Handler {
	quotaService := quota.NewService(s.logger, s.store, s.store)

	visitorHandler := handlers.NewVisitorHandler(s.logger, s.store)
	authHandler := handlers.NewAuthHandler(
		s.logger, s.store, s.store, s.store, s.store,
		mail, s.cfg.SuperuserEmails, s.cfg.PublicURL,
	)
	queryHandler := handlers.NewQueryHandler(s.logger, quotaService, s.store)
	historyHandler := handlers.NewHistoryHandler(s.logger, s.store, s.cfg.SuperuserEmails)
	healthHandler := handlers.NewHealthHandler(s.logger, s.store)
	proxyHandler := proxy.NewHandler(s.logger, s.cache, s.cfg.ProxyUpstreams)

	authMW := middleware.AuthMiddleware(s.logger, s.store)
	// Отдельный limiter на каждый эндпоинт: перебор логина не должен
	// съедать лимит сброса пароля
	loginLimiter := middleware.RateLimitMiddleware(loginRateLimit, loginRateWindow, s.logger)
	forgotLimiter := middleware.RateLimitMiddleware(loginRateLimit, loginRateWindow, s.logger)

	mux := http.NewServeMux()

	// Анонимные посетители и квота
	mux.HandleFunc("POST /api/visitor", visitorHandler.Register)

	// Жизненный цикл аккаунта
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/auth/verify/{token}", authHandler.VerifyEmail)
	mux.Handle("POST /api/auth/login", loginLimiter(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/forgot-password", forgotLimiter(http.HandlerFunc(authHandler.ForgotPassword)))
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.ResetPassword)

	// Поисковые запросы и журнал
	mux.HandleFunc("POST /api/query", queryHandler.Query)
	mux.HandleFunc("POST /api/query/result", queryHandler.QueryResult)
	mux.Handle("GET /api/queries/history", authMW(http.HandlerFunc(historyHandler.History)))
	mux.Handle("GET /api/queries/history/all", authMW(http.HandlerFunc(historyHandler.HistoryAll)))

	// Прокси к внешним explorer API
	mux.HandleFunc("GET /api/proxy/{chain}", proxyHandler.Proxy)

	mux.HandleFunc("GET /api/health", healthHandler.Health)

	// Внешние middleware: recovery снаружи, чтобы ловить паники логирования
	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(s.logger, []string{"/api/health"})(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}

// Run starts the server and blocks until ctx is canceled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// Фоновая зачистка останавливается вместе с сервером
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sweepLoop(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

// sweepLoop периодически удаляет просроченные сессии и протухший кеш
func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()

			if deleted, err := s.store.DeleteExpiredSessions(ctx, now); err != nil {
				s.logger.Error("session sweep failed", slog.Any("error", err))
			} else if deleted > 0 {
				s.logger.Info("expired sessions deleted", slog.Int("count", deleted))
			}

			if deleted, err := s.cache.Sweep(now); err != nil {
				s.logger.Error("cache sweep failed", slog.Any("error", err))
			} else if deleted > 0 {
				s.logger.Debug("stale cache entries deleted", slog.Int("count", deleted))
			}
		}
	}
}
