// Пакет config — загрузка и валидация конфигурации каталога
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Бэкенды хранилища сущностей.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// minJWTSecretLen — минимальная длина ключа подписи HS256 в байтах.
const minJWTSecretLen = 32

// Config содержит все параметры конфигурации каталога.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- Хранилище ---

	// Бэкенд хранилища: postgres или memory
	Storage string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимальный размер пула соединений
	DBMaxConns int

	// --- JWT ---

	// Симметричный ключ подписи токенов (HS256)
	JWTSecret string
	// kid в заголовке выпускаемых токенов
	JWTKeyID string
	// Issuer выпускаемых токенов
	JWTIssuer string
	// Время жизни токена
	JWTTTL time.Duration
	// Допустимое отклонение часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Проверять ли iss при валидации (по умолчанию нет)
	JWTValidateIssuer bool

	// Стоимость bcrypt для паролей
	BcryptCost int

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// OGL_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("OGL_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("OGL_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("OGL_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("OGL_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("OGL_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("OGL_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("OGL_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.HTTPReadTimeout, err = getEnvDuration("OGL_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OGL_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("OGL_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OGL_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("OGL_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OGL_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Хранилище ---

	cfg.Storage = strings.ToLower(getEnvDefault("OGL_STORAGE", StoragePostgres))
	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		return nil, fmt.Errorf("OGL_STORAGE: недопустимое значение %q, допустимые: postgres, memory", cfg.Storage)
	}

	// --- PostgreSQL ---
	// Параметры БД обязательны только для бэкенда postgres.

	if cfg.Storage == StoragePostgres {
		if cfg.DBHost, err = getEnvRequired("OGL_DB_HOST"); err != nil {
			return nil, err
		}
		if cfg.DBName, err = getEnvRequired("OGL_DB_NAME"); err != nil {
			return nil, err
		}
		if cfg.DBUser, err = getEnvRequired("OGL_DB_USER"); err != nil {
			return nil, err
		}
		if cfg.DBPassword, err = getEnvRequired("OGL_DB_PASSWORD"); err != nil {
			return nil, err
		}
	}

	cfg.DBPort, err = getEnvInt("OGL_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("OGL_DB_PORT: %w", err)
	}

	cfg.DBSSLMode = getEnvDefault("OGL_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("OGL_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	cfg.DBMaxConns, err = getEnvInt("OGL_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("OGL_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 1000 {
		return nil, fmt.Errorf("OGL_DB_MAX_CONNS: значение %d вне диапазона 1-1000", cfg.DBMaxConns)
	}

	// --- JWT ---

	// OGL_JWT_SECRET — обязательный, не короче 32 байт
	cfg.JWTSecret, err = getEnvRequired("OGL_JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if len(cfg.JWTSecret) < minJWTSecretLen {
		return nil, fmt.Errorf("OGL_JWT_SECRET: длина ключа %d байт, требуется не менее %d", len(cfg.JWTSecret), minJWTSecretLen)
	}

	cfg.JWTKeyID = getEnvDefault("OGL_JWT_KEY_ID", "v1")
	cfg.JWTIssuer = getEnvDefault("OGL_JWT_ISSUER", "opengamelist")

	cfg.JWTTTL, err = getEnvDuration("OGL_JWT_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("OGL_JWT_TTL: %w", err)
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("OGL_JWT_TTL: время жизни токена должно быть положительным")
	}

	cfg.JWTLeeway, err = getEnvDuration("OGL_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OGL_JWT_LEEWAY: %w", err)
	}

	// OGL_JWT_VALIDATE_ISSUER — проверка iss выключена по умолчанию
	cfg.JWTValidateIssuer, err = getEnvBool("OGL_JWT_VALIDATE_ISSUER", false)
	if err != nil {
		return nil, fmt.Errorf("OGL_JWT_VALIDATE_ISSUER: %w", err)
	}

	cfg.BcryptCost, err = getEnvInt("OGL_BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("OGL_BCRYPT_COST: %w", err)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("OGL_BCRYPT_COST: значение %d вне допустимого диапазона %d-%d",
			cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("OGL_DEPHEALTH_GROUP", "opengamelist")
	cfg.DephealthCheckInterval, err = getEnvDuration("OGL_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OGL_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("OGL_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OGL_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL (формат key=value).
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		dsnValue(c.DBHost), c.DBPort, dsnValue(c.DBName), dsnValue(c.DBUser),
		dsnValue(c.DBPassword), dsnValue(c.DBSSLMode),
	)
}

// dsnValue экранирует значение для key=value DSN: пустые значения
// и значения с пробелами, кавычками или '\' берутся в одинарные кавычки.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
