// Точка входа каталога Open Game List.
// Загружает конфигурацию, открывает хранилище (PostgreSQL с миграциями
// или память), создаёт сервис токенов, сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/opengamelist/internal/api/handlers"
	"github.com/bigkaa/opengamelist/internal/api/middleware"
	"github.com/bigkaa/opengamelist/internal/api/openapi"
	"github.com/bigkaa/opengamelist/internal/auth"
	"github.com/bigkaa/opengamelist/internal/config"
	"github.com/bigkaa/opengamelist/internal/database"
	"github.com/bigkaa/opengamelist/internal/memstore"
	"github.com/bigkaa/opengamelist/internal/repository"
	"github.com/bigkaa/opengamelist/internal/server"
	"github.com/bigkaa/opengamelist/internal/service"
)

// serviceID — имя вершины графа зависимостей в topologymetrics.
const serviceID = "catalog-api"

// storage — выбранный бэкенд хранилища.
type storage struct {
	repos   repository.Repositories
	tx      repository.Transactor
	checker handlers.ReadinessChecker
	deps    handlers.DependencyReporter
	close   func()
}

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Каталог запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage", cfg.Storage),
	)

	ctx := context.Background()

	// 3. Хранилище
	var st *storage
	switch cfg.Storage {
	case config.StorageMemory:
		st = openMemory(logger)
	default:
		st, err = openPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка инициализации PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	defer st.close()

	// 4. Сервис токенов
	if !cfg.JWTValidateIssuer {
		logger.Warn("Проверка iss отключена (OGL_JWT_VALIDATE_ISSUER=false)")
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:         []byte(cfg.JWTSecret),
		KeyID:          cfg.JWTKeyID,
		Issuer:         cfg.JWTIssuer,
		TTL:            cfg.JWTTTL,
		Leeway:         cfg.JWTLeeway,
		ValidateIssuer: cfg.JWTValidateIssuer,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания сервиса токенов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Services
	usersSvc := service.NewUserService(st.repos, st.tx, tokens, cfg.BcryptCost, logger)
	itemsSvc := service.NewItemService(st.repos, st.tx, logger)
	rankingSvc := service.NewRankingService(st.repos.Items, logger)
	commentsSvc := service.NewCommentTreeManager(st.repos, st.tx, logger)

	// 6. OpenAPI контракт для проверки тел запросов
	validator, err := openapi.NewValidator(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. API handler
	apiHandler := handlers.NewAPIHandler(
		handlers.NewHealthHandler(st.checker, st.deps),
		itemsSvc,
		rankingSvc,
		commentsSvc,
		usersSvc,
		validator,
		logger,
	)

	// 8. Bearer middleware: токен → пользователь → access.Principal
	bearerAuth := middleware.BearerAuth(tokens, usersSvc, logger)
	logger.Info("Bearer middleware инициализирован",
		slog.String("kid", tokens.KeyID()),
		slog.String("ttl", tokens.TTL().String()),
	)

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, bearerAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Каталог остановлен")
}

// openMemory создаёт хранилище в памяти процесса.
func openMemory(logger *slog.Logger) *storage {
	store := memstore.New(logger)
	logger.Warn("Используется хранилище в памяти: данные не сохраняются между рестартами")
	return &storage{
		repos:   store.Repositories,
		tx:      store,
		checker: store,
		close:   func() {},
	}
}

// openPostgres применяет миграции, подключается к PostgreSQL и
// запускает мониторинг зависимости через topologymetrics.
func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("OGL_DEPHEALTH_GROUP") == "" {
		logger.Warn("OGL_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		return nil, err
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья идёт через существующий пул соединений.
	pgDB := stdlib.OpenDBFromPool(pool)

	store := repository.NewStore(pool)
	st := &storage{
		repos:   store.Repositories,
		tx:      store,
		checker: database.NewReadinessChecker(pool),
	}

	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     serviceID,
		Group:         cfg.DephealthGroup,
		CheckInterval: cfg.DephealthCheckInterval,
	}, pgDB, cfg.DatabaseURL(), logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
			dephealthSvc = nil
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
			st.deps = dephealthSvc
		}
	}

	st.close = func() {
		if dephealthSvc != nil {
			dephealthSvc.Stop()
		}
		_ = pgDB.Close()
		pool.Close()
	}
	return st, nil
}
