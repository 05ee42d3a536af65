// Package config builds the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/opensource-finance/preflight/internal/domain"
)

// Load reads envFiles (".env" when none are given) into the process
// environment without overriding variables that are already set, then builds
// the configuration. Missing env files are not an error.
func Load(envFiles ...string) (*domain.Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	cfg := FromEnv()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv overlays environment variables on domain.DefaultConfig.
func FromEnv() *domain.Config {
	cfg := domain.DefaultConfig()

	cfg.Server.Host = getEnv("PREFLIGHT_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("PREFLIGHT_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvInt("PREFLIGHT_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvInt("PREFLIGHT_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.RateLimitRPS = getEnvInt("RATE_LIMIT_RPS", cfg.Server.RateLimitRPS)
	cfg.Server.TrustProxyHeaders = getEnvBool("TRUST_PROXY_HEADERS", cfg.Server.TrustProxyHeaders)

	cfg.Chain.RPCURL = getEnv("RPC_URL", cfg.Chain.RPCURL)
	cfg.Chain.TransferLimit = getEnvInt("TRANSFER_LIMIT", cfg.Chain.TransferLimit)
	cfg.Chain.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", cfg.Chain.UpstreamTimeout)

	cfg.Etherscan.BaseURL = getEnv("ETHERSCAN_URL", cfg.Etherscan.BaseURL)
	cfg.Etherscan.APIKey = getEnv("ETHERSCAN_API_KEY", cfg.Etherscan.APIKey)

	cfg.Intel.Source = strings.ToLower(getEnv("INTEL_SOURCE", cfg.Intel.Source))
	cfg.Intel.Path = getEnv("SCAM_DB_PATH", cfg.Intel.Path)
	cfg.Heuristics.File = getEnv("PREFLIGHT_HEURISTICS_FILE", cfg.Heuristics.File)

	// The SQL store follows the intel source; sqlite stays the default driver
	// for the operator CLI when the service reads from a file.
	if cfg.Intel.Source == domain.IntelSourcePostgres {
		cfg.Repository.Driver = "postgres"
	}
	cfg.Repository.SQLitePath = getEnv("SQLITE_PATH", cfg.Repository.SQLitePath)
	cfg.Repository.PostgresHost = getEnv("POSTGRES_HOST", cfg.Repository.PostgresHost)
	cfg.Repository.PostgresPort = getEnvInt("POSTGRES_PORT", cfg.Repository.PostgresPort)
	cfg.Repository.PostgresUser = getEnv("POSTGRES_USER", cfg.Repository.PostgresUser)
	cfg.Repository.PostgresPassword = getEnv("POSTGRES_PASSWORD", cfg.Repository.PostgresPassword)
	cfg.Repository.PostgresDB = getEnv("POSTGRES_DB", cfg.Repository.PostgresDB)
	cfg.Repository.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", cfg.Repository.PostgresSSLMode)

	cfg.Cache.Type = strings.ToLower(getEnv("CACHE_TYPE", cfg.Cache.Type))
	cfg.Cache.LocalMaxSize = getEnvInt("CACHE_MAX_SIZE", cfg.Cache.LocalMaxSize)
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = getEnvInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.EnableTwoPhase = getEnvBool("REDIS_TWO_PHASE", cfg.Cache.EnableTwoPhase)
	cfg.Cache.VerificationTTL = getEnvDuration("VERIFICATION_CACHE_TTL", cfg.Cache.VerificationTTL)

	cfg.EventBus.Type = strings.ToLower(getEnv("EVENTBUS_TYPE", cfg.EventBus.Type))
	cfg.EventBus.NATSUrl = getEnv("NATS_URL", cfg.EventBus.NATSUrl)
	cfg.EventBus.NATSToken = getEnv("NATS_TOKEN", cfg.EventBus.NATSToken)

	cfg.Logging.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(getEnv("LOG_FORMAT", cfg.Logging.Format))

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)

	return cfg
}

// Validate rejects configurations the service cannot start with.
func Validate(cfg *domain.Config) error {
	var errs []error

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PREFLIGHT_PORT must be between 1 and 65535, got %d", cfg.Server.Port))
	}
	if cfg.Server.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must not be negative"))
	}
	if cfg.Chain.TransferLimit < 1 {
		errs = append(errs, fmt.Errorf("TRANSFER_LIMIT must be at least 1, got %d", cfg.Chain.TransferLimit))
	}
	if cfg.Chain.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT must be positive"))
	}

	switch cfg.Intel.Source {
	case domain.IntelSourceFile:
		if cfg.Intel.Path == "" {
			errs = append(errs, fmt.Errorf("SCAM_DB_PATH is required when INTEL_SOURCE is file"))
		}
	case domain.IntelSourceSQLite, domain.IntelSourcePostgres:
	default:
		errs = append(errs, fmt.Errorf("INTEL_SOURCE must be file, sqlite or postgres, got %q", cfg.Intel.Source))
	}

	switch cfg.Cache.Type {
	case "memory", "":
		if cfg.Cache.EnableTwoPhase {
			errs = append(errs, fmt.Errorf("REDIS_TWO_PHASE requires CACHE_TYPE=redis"))
		}
	case "redis":
		if cfg.Cache.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("REDIS_ADDR is required when CACHE_TYPE is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_TYPE must be memory or redis, got %q", cfg.Cache.Type))
	}

	switch cfg.EventBus.Type {
	case "none", "", "channel":
	case "nats":
		if cfg.EventBus.NATSUrl == "" {
			errs = append(errs, fmt.Errorf("NATS_URL is required when EVENTBUS_TYPE is nats"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENTBUS_TYPE must be none, channel or nats, got %q", cfg.EventBus.Type))
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.Logging.Format))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when TRACING_ENABLED is set"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("750ms", "10s") or whole seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
