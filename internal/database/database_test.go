package database

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/opengamelist/internal/config"
)

// setupTestDB запускает PostgreSQL в Docker-контейнере через testcontainers.
// Возвращает конфиг, указывающий на контейнер.
func setupTestDB(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("ogl_test"),
		postgres.WithUsername("ogl"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("OGL_DB_HOST", host)
	t.Setenv("OGL_DB_PORT", port.Port())
	t.Setenv("OGL_DB_NAME", "ogl_test")
	t.Setenv("OGL_DB_USER", "ogl")
	t.Setenv("OGL_DB_PASSWORD", "test-password")
	t.Setenv("OGL_DB_SSL_MODE", "disable")
	t.Setenv("OGL_JWT_SECRET", "integration-test-secret-0123456789")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// TestConnect проверяет подключение к PostgreSQL через pgxpool.
func TestConnect(t *testing.T) {
	cfg := setupTestDB(t)
	ctx := context.Background()

	pool, err := Connect(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pool.Ping() вернул ошибку: %v", err)
	}
}

// TestMigrate проверяет применение миграций и их идемпотентность.
func TestMigrate(t *testing.T) {
	cfg := setupTestDB(t)
	logger := testLogger()

	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate() вернул ошибку: %v", err)
	}
	// Повторное применение — ErrNoChange не считается ошибкой
	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Повторный Migrate() вернул ошибку: %v", err)
	}

	ctx := context.Background()
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	for _, table := range []string{"users", "items", "comments"} {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("Ошибка проверки таблицы %s: %v", table, err)
		}
		if !exists {
			t.Errorf("Таблица %s не создана", table)
		}
	}
}

// TestReadinessChecker проверяет ReadinessChecker.
func TestReadinessChecker(t *testing.T) {
	cfg := setupTestDB(t)
	ctx := context.Background()

	pool, err := Connect(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	status, msg := NewReadinessChecker(pool).CheckReady()
	if status != "ok" {
		t.Errorf("CheckReady() status = %q, message = %q; ожидали ok", status, msg)
	}
}

// TestMigrateURL проверяет экранирование учётных данных в URL миграций.
func TestMigrateURL(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     5432,
		DBName:     "ogl",
		DBUser:     "ogl",
		DBPassword: "p@ss/word",
		DBSSLMode:  "disable",
	}

	got := migrateURL(cfg)
	if !strings.HasPrefix(got, "pgx5://ogl:p%40ss%2Fword@db:5432/ogl") {
		t.Errorf("migrateURL() = %q", got)
	}
	if !strings.HasSuffix(got, "?sslmode=disable") {
		t.Errorf("migrateURL() = %q, ожидался sslmode=disable", got)
	}
}

// TestDatabaseDSN_ParsesSpecialPassword проверяет, что DSN с пробелами,
// кавычками и '\' в учётных данных разбирается pgxpool без потерь.
func TestDatabaseDSN_ParsesSpecialPassword(t *testing.T) {
	passwords := []string{"plain", "with space", `it's`, `back\slash`, `a 'b' \c=d`}
	for _, pw := range passwords {
		t.Run(pw, func(t *testing.T) {
			cfg := &config.Config{
				DBHost:     "db",
				DBPort:     5432,
				DBName:     "ogl",
				DBUser:     "ogl user",
				DBPassword: pw,
				DBSSLMode:  "disable",
			}

			poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
			if err != nil {
				t.Fatalf("ParseConfig(%q) ошибка: %v", cfg.DatabaseDSN(), err)
			}
			if poolCfg.ConnConfig.Password != pw {
				t.Errorf("Password = %q, ожидается %q", poolCfg.ConnConfig.Password, pw)
			}
			if poolCfg.ConnConfig.User != "ogl user" {
				t.Errorf("User = %q, ожидается %q", poolCfg.ConnConfig.User, "ogl user")
			}
			if poolCfg.ConnConfig.Database != "ogl" || poolCfg.ConnConfig.Port != 5432 {
				t.Errorf("ConnConfig = %s:%d/%s", poolCfg.ConnConfig.Host, poolCfg.ConnConfig.Port, poolCfg.ConnConfig.Database)
			}
		})
	}
}

func TestPoolConfig(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     5432,
		DBName:     "ogl",
		DBUser:     "ogl",
		DBPassword: "secret",
		DBSSLMode:  "disable",
		DBMaxConns: 7,
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		t.Fatalf("poolConfig() ошибка: %v", err)
	}
	if poolCfg.MaxConns != 7 {
		t.Errorf("MaxConns = %d, ожидается 7", poolCfg.MaxConns)
	}
	if got := poolCfg.ConnConfig.RuntimeParams["application_name"]; got != applicationName {
		t.Errorf("application_name = %q, ожидается %q", got, applicationName)
	}
}

func TestPoolStatus(t *testing.T) {
	tests := []struct {
		acquired, limit int32
		want            string
	}{
		{0, 10, "ok"},
		{9, 10, "ok"},
		{10, 10, "degraded"},
		{0, 0, "ok"},
	}
	for _, tt := range tests {
		status, msg := poolStatus(tt.acquired, tt.limit)
		if status != tt.want {
			t.Errorf("poolStatus(%d, %d) = %q (%s), ожидается %q", tt.acquired, tt.limit, status, msg, tt.want)
		}
	}
}
