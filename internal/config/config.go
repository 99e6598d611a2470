// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

// Store kinds accepted by STORE.
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// ============================================================
// DEVELOPER: Add new configuration fields here.
// ============================================================
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `env:",required"` - make it required
// - `envDefault:"value"` - set a default value
//
// After adding fields here, update loader.go Validate() if custom
// validation is needed.
// ============================================================
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"ExtendDynamicRating"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Preference store
	// ============================================================
	Store         string `env:"STORE" envDefault:"redis"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/rating.db"`
	FileStorePath string `env:"FILE_STORE_PATH" envDefault:"data/rating.json"`

	// ============================================================
	// Redis configuration
	// ============================================================
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`
	RedisKeyPrefix    string `env:"REDIS_KEY_PREFIX" envDefault:"dynamic_rating:prefs:"`
	RedisTTLHours     int    `env:"REDIS_TTL_HOURS" envDefault:"0"`

	// ============================================================
	// Rating policies
	// ============================================================
	// An empty POLICY_PATH runs the single default policy.
	PolicyPath string `env:"POLICY_PATH" envDefault:"config/policies.yaml"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT" envDefault:"http://localhost:9411/api/v2/spans"`
}
