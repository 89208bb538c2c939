package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway, the CLI and the
// dev backend.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Session     SessionConfig
	SecretStore SecretStoreConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Backend     BackendConfig
	DevBackend  DevBackendConfig
	Auth        AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig tunes the bootstrap sequencer.
type SessionConfig struct {
	SplashMinMillis    int
	StoreTimeoutMillis int
}

// Secret store backends.
const (
	StoreBackendMemory   = "memory"
	StoreBackendFile     = "file"
	StoreBackendSQLite   = "sqlite"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

// SecretStoreConfig selects and configures the secret store backend.
type SecretStoreConfig struct {
	Backend    string
	FilePath   string
	Passphrase string
	SQLitePath string
	Namespace  string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BackendConfig points at the remote GraphQL backend.
type BackendConfig struct {
	GraphQLURL     string
	TimeoutSeconds int
}

// DevBackendConfig configures the local backend stand-in.
type DevBackendConfig struct {
	Host string
	Port string
	Seed string
}

// AuthConfig defines token and password parameters for the dev backend.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("SECRET_STORE_BACKEND", StoreBackendFile))
	switch backend {
	case StoreBackendMemory, StoreBackendFile, StoreBackendSQLite, StoreBackendRedis, StoreBackendPostgres:
	default:
		return nil, fmt.Errorf("invalid SECRET_STORE_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "session-gate"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			SplashMinMillis:    getEnvAsInt("SESSION_SPLASH_MIN_MS", 3000),
			StoreTimeoutMillis: getEnvAsInt("SESSION_STORE_TIMEOUT_MS", 5000),
		},
		SecretStore: SecretStoreConfig{
			Backend:    backend,
			FilePath:   getEnv("SECRET_STORE_FILE_PATH", "data/secrets.bin"),
			Passphrase: getEnv("SECRET_STORE_PASSPHRASE", "dev-passphrase"),
			SQLitePath: getEnv("SECRET_STORE_SQLITE_PATH", "data/secrets.db"),
			Namespace:  getEnv("SECRET_STORE_NAMESPACE", "default"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Backend: BackendConfig{
			GraphQLURL:     getEnv("BACKEND_GRAPHQL_URL", "http://127.0.0.1:4000/graphql"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 15),
		},
		DevBackend: DevBackendConfig{
			Host: getEnv("DEVBACKEND_HOST", "127.0.0.1"),
			Port: getEnv("DEVBACKEND_PORT", "4000"),
			Seed: getEnv("DEVBACKEND_SEED", "user:alice:secret;professional:dr@karsaku.id:secret:Dr. Rina"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60*24),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SplashMin is the minimum time the bootstrap phase lasts.
func (s SessionConfig) SplashMin() time.Duration {
	if s.SplashMinMillis <= 0 {
		return 0
	}
	return time.Duration(s.SplashMinMillis) * time.Millisecond
}

// StoreTimeout is the per-call deadline applied to secret store operations.
func (s SessionConfig) StoreTimeout() time.Duration {
	if s.StoreTimeoutMillis <= 0 {
		return 0
	}
	return time.Duration(s.StoreTimeoutMillis) * time.Millisecond
}

// Timeout returns the per-request backend timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Addr returns the dev backend bind address.
func (d DevBackendConfig) Addr() string {
	return fmt.Sprintf("%s:%s", d.Host, d.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
