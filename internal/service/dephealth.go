// dephealth.go — мониторинг PostgreSQL каталога через topologymetrics SDK.
// Проверка идёт через *sql.DB поверх того же pgxpool, что обслуживает
// запросы, поэтому исчерпание пула тоже видно в метриках app_dependency_*.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// postgresDependency — имя зависимости в метриках и в /health/ready.
const postgresDependency = "postgresql"

// DephealthConfig — параметры мониторинга зависимостей.
type DephealthConfig struct {
	// ServiceID — имя вершины графа текущего приложения
	ServiceID string
	// Group — лейбл группы (OGL_DEPHEALTH_GROUP)
	Group string
	// CheckInterval — интервал проверки (OGL_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
	// Registerer — Prometheus registry; nil означает глобальный
	Registerer prometheus.Registerer
}

// DephealthService — мониторинг хранилища каталога через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт мониторинг PostgreSQL.
// db — адаптер пула из stdlib.OpenDBFromPool, dbURL — адрес без пароля
// (идёт только в лейблы).
func NewDephealthService(cfg DephealthConfig, db *sql.DB, dbURL string, logger *slog.Logger) (*DephealthService, error) {
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("интервал проверки должен быть положительным: %s", cfg.CheckInterval)
	}

	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		// pgcheck напрямую: contrib/sqldb тянет MySQL-драйвер
		dephealth.AddDependency(postgresDependency, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(db)),
			dephealth.FromURL(dbURL),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		),
	}
	if cfg.Registerer != nil {
		opts = append(opts, dephealth.WithRegisterer(cfg.Registerer))
	}

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, opts...)
	if err != nil {
		return nil, fmt.Errorf("инициализация topologymetrics: %w", err)
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодические проверки.
func (ds *DephealthService) Start(ctx context.Context) error {
	if err := ds.dh.Start(ctx); err != nil {
		return err
	}
	ds.logger.Info("Мониторинг хранилища запущен")
	return nil
}

// Stop останавливает проверки.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг хранилища остановлен")
}

// Health возвращает состояние зависимостей: имя → true, если доступна.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// Down возвращает отсортированные имена недоступных зависимостей.
func (ds *DephealthService) Down() []string {
	return downDependencies(ds.Health())
}

func downDependencies(health map[string]bool) []string {
	var down []string
	for name, ok := range health {
		if !ok {
			down = append(down, name)
		}
	}
	slices.Sort(down)
	return down
}
