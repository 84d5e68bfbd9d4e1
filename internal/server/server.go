// Пакет server — HTTP-сервер каталога с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bigkaa/opengamelist/internal/api/handlers"
	"github.com/bigkaa/opengamelist/internal/api/middleware"
	"github.com/bigkaa/opengamelist/internal/config"
)

// Server — HTTP-сервер каталога.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
// auth — middleware Bearer-аутентификации для изменяющих запросов
// (nil — без аутентификации, только для тестов).
func New(cfg *config.Config, logger *slog.Logger, h *handlers.APIHandler, auth func(http.Handler) http.Handler) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, h, auth),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter строит chi-роутер каталога.
// Чтение публичное; создание, изменение и удаление требуют Bearer token.
// Статические сегменты (/items/GetLatest) имеют приоритет над /items/{id}.
func NewRouter(logger *slog.Logger, h *handlers.APIHandler, auth func(http.Handler) http.Handler) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(chimw.RequestID)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(chimw.Recoverer)

	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	// Health и metrics проверяются Kubernetes напрямую
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)
	router.Get("/openapi.yaml", h.GetOpenAPI)

	// Рейтинги
	router.Get("/items/GetLatest", h.GetLatest)
	router.Get("/items/GetLatest/{n}", h.GetLatest)
	router.Get("/items/GetMostViewed", h.GetMostViewed)
	router.Get("/items/GetMostViewed/{n}", h.GetMostViewed)
	router.Get("/items/GetRandom", h.GetRandom)
	router.Get("/items/GetRandom/{n}", h.GetRandom)

	// Публичное чтение
	router.Get("/items/{id}", h.GetItem)
	router.Get("/items/{id}/comments", h.ListItemComments)
	router.Get("/comments/{id}", h.GetComment)
	router.Get("/comments/{id}/children", h.ListCommentChildren)
	router.Get("/users/{id}", h.GetUser)

	// Регистрация и выпуск токена
	router.Post("/users", h.RegisterUser)
	router.Post("/auth/token", h.IssueToken)

	// Изменяющие запросы — только с Bearer token
	router.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/items", h.CreateItem)
		r.Put("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.DeleteItem)

		r.Post("/comments", h.CreateComment)
		r.Delete("/comments/{id}", h.DeleteComment)

		r.Delete("/users/{id}", h.DeleteUser)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
