// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/AccelByte/extend-dynamic-rating/pkg/rating"
)

// DefaultPolicyID is the ID of the policy returned by DefaultConfig.
const DefaultPolicyID = "default"

// Config represents the complete policies file.
type Config struct {
	Policies []PolicyConfig `yaml:"policies" toml:"policies" json:"policies"`
}

// PolicyConfig represents one rating policy entry.
type PolicyConfig struct {
	ID                 string  `yaml:"id" toml:"id" json:"id"`
	Enabled            bool    `yaml:"enabled" toml:"enabled" json:"enabled"`
	BaseKey            string  `yaml:"base_key" toml:"base_key" json:"base_key"`
	RateIntervalDays   int     `yaml:"rate_interval_days" toml:"rate_interval_days" json:"rate_interval_days"`
	RateCount          int     `yaml:"rate_count" toml:"rate_count" json:"rate_count"`
	RemindIntervalDays int     `yaml:"remind_interval_days" toml:"remind_interval_days" json:"remind_interval_days"`
	PositiveThreshold  float64 `yaml:"positive_threshold,omitempty" toml:"positive_threshold,omitempty" json:"positive_threshold"`
}

// DefaultConfig returns a single enabled policy using the library defaults.
func DefaultConfig() *Config {
	return &Config{
		Policies: []PolicyConfig{
			{
				ID:                 DefaultPolicyID,
				Enabled:            true,
				BaseKey:            rating.DefaultBaseKey,
				RateIntervalDays:   rating.DefaultRateInterval,
				RateCount:          rating.DefaultRateCount,
				RemindIntervalDays: rating.DefaultRemindInterval,
				PositiveThreshold:  rating.RatingPositive,
			},
		},
	}
}

// LoadConfig loads policies from a YAML or TOML file, chosen by extension.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var config Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML policy file: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(expanded, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML policy file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported policy file extension %q", ext)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy configuration: %w", err)
	}

	return &config, nil
}

// Validate checks the policies and fills in an omitted positive threshold.
func (c *Config) Validate() error {
	if len(c.Policies) == 0 {
		return fmt.Errorf("no policies defined")
	}

	ids := make(map[string]bool)
	baseKeys := make(map[string]string)
	for i := range c.Policies {
		p := &c.Policies[i]

		if p.ID == "" {
			return fmt.Errorf("policy with empty ID found")
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate policy ID: %s", p.ID)
		}
		ids[p.ID] = true

		if p.BaseKey == "" {
			p.BaseKey = rating.DefaultBaseKey
		}
		if other, ok := baseKeys[p.BaseKey]; ok {
			return fmt.Errorf("policies %s and %s share base key %q", other, p.ID, p.BaseKey)
		}
		baseKeys[p.BaseKey] = p.ID

		if p.RateIntervalDays < 0 || p.RateCount < 0 || p.RemindIntervalDays < 0 {
			return fmt.Errorf("policy %s has a negative threshold", p.ID)
		}
		if p.RateIntervalDays > rating.MaxIntervalDays || p.RemindIntervalDays > rating.MaxIntervalDays {
			return fmt.Errorf("policy %s has an interval above %d days", p.ID, rating.MaxIntervalDays)
		}

		if p.PositiveThreshold < 0 {
			return fmt.Errorf("policy %s has a negative positive_threshold", p.ID)
		}
		if p.PositiveThreshold == 0 {
			p.PositiveThreshold = rating.RatingPositive
		}
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
