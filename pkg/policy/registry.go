// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-dynamic-rating/pkg/rating"
)

// Policy is a registered rating policy.
type Policy struct {
	cfg PolicyConfig
}

// New creates a policy from its configuration.
func New(cfg PolicyConfig) *Policy {
	if cfg.BaseKey == "" {
		cfg.BaseKey = rating.DefaultBaseKey
	}
	if cfg.PositiveThreshold <= 0 {
		cfg.PositiveThreshold = rating.RatingPositive
	}
	return &Policy{cfg: cfg}
}

func (p *Policy) ID() string                 { return p.cfg.ID }
func (p *Policy) Config() PolicyConfig       { return p.cfg }
func (p *Policy) PositiveThreshold() float64 { return p.cfg.PositiveThreshold }

// UserBaseKey returns the base key namespacing userKey's state under this policy.
func (p *Policy) UserBaseKey(userKey string) string {
	if userKey == "" {
		return p.cfg.BaseKey
	}
	return p.cfg.BaseKey + userKey + "_"
}

// RatingConfig builds the engine configuration for userKey.
// An empty userKey uses the policy base key as is.
func (p *Policy) RatingConfig(userKey string, baseline int64, clock func() time.Time) rating.Config {
	return rating.Config{
		BaseKey:          p.UserBaseKey(userKey),
		RateInterval:     p.cfg.RateIntervalDays,
		RateCount:        p.cfg.RateCount,
		RemindInterval:   p.cfg.RemindIntervalDays,
		ReminderBaseline: baseline,
		Clock:            clock,
	}
}

// Registry manages available policies.
// It provides thread-safe registration and lookup of policies.
type Registry struct {
	policies map[string]*Policy
	mu       sync.RWMutex
}

// NewRegistry creates a new empty policy registry.
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]*Policy),
	}
}

// Register adds a policy to the registry.
// Returns an error if a policy with the same ID already exists.
func (r *Registry) Register(p *Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[p.ID()]; exists {
		return fmt.Errorf("policy %s already registered", p.ID())
	}

	r.policies[p.ID()] = p
	return nil
}

// Get returns a policy by ID, or nil if it doesn't exist.
func (r *Registry) Get(id string) *Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.policies[id]
}

// GetAll returns every registered policy sorted by ID.
func (r *Registry) GetAll() []*Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Policy, 0, len(r.policies))
	for _, p := range r.policies {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })
	return all
}

// Count returns the number of registered policies.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.policies)
}

// RegisterPolicies registers every enabled policy of config.
func RegisterPolicies(registry *Registry, config *Config) error {
	for _, pc := range config.Policies {
		if !pc.Enabled {
			logrus.Debugf("skipping disabled policy %s", pc.ID)
			continue
		}
		if err := registry.Register(New(pc)); err != nil {
			return fmt.Errorf("failed to register policy %s: %w", pc.ID, err)
		}
		logrus.Infof("registered rating policy %s (base_key=%s rate_interval=%d rate_count=%d remind_interval=%d)",
			pc.ID, pc.BaseKey, pc.RateIntervalDays, pc.RateCount, pc.RemindIntervalDays)
	}
	return nil
}
