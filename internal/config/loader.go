// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	return Parse()
}

// Parse parses the process environment into a Config without reading .env.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	ports := []struct {
		name string
		port int
	}{
		{"GRPC_PORT", c.GRPCPort},
		{"HTTP_PORT", c.HTTPPort},
		{"METRICS_PORT", c.MetricsPort},
	}
	seen := make(map[int]string)
	for _, p := range ports {
		if p.port < 1 || p.port > 65535 {
			return fmt.Errorf("invalid %s: %d (must be 1-65535)", p.name, p.port)
		}
		if other, ok := seen[p.port]; ok {
			return fmt.Errorf("%s and %s both use port %d", other, p.name, p.port)
		}
		seen[p.port] = p.name
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %q", c.LogLevel)
	}

	switch c.Store {
	case StoreRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			return fmt.Errorf("REDIS_HOST and REDIS_PORT are required for the redis store")
		}
		if c.RedisTTLHours < 0 {
			return fmt.Errorf("invalid REDIS_TTL_HOURS: %d (must be >= 0)", c.RedisTTLHours)
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreFile:
		if c.FileStorePath == "" {
			return fmt.Errorf("FILE_STORE_PATH is required for the file store")
		}
	case StoreMemory:
		logrus.Warn("memory store selected, rating state will not survive a restart")
	default:
		return fmt.Errorf("invalid STORE: %q (must be redis, sqlite, file or memory)", c.Store)
	}

	return nil
}
