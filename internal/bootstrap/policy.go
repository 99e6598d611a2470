// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-dynamic-rating/pkg/policy"
)

// InitPolicies loads the policy file and registers its enabled policies.
// An empty path registers the default policy.
//
// ============================================================
// DEVELOPER: Rating policies
// ============================================================
// Each policy in config/policies.yaml is an independent prompt flow
// with its own base key and thresholds. Add a policy there and
// address it by ID from the API; no code change is needed.
// ============================================================
func InitPolicies(path string) (*policy.Registry, error) {
	cfg := policy.DefaultConfig()
	if path != "" {
		loaded, err := policy.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load policies from %s: %w", path, err)
		}
		cfg = loaded
		logrus.Infof("loaded rating policies from %s", path)
	} else {
		logrus.Info("no policy file configured, using the default policy")
	}

	registry := policy.NewRegistry()
	if err := policy.RegisterPolicies(registry, cfg); err != nil {
		return nil, err
	}
	if registry.Count() == 0 {
		return nil, fmt.Errorf("no enabled rating policies")
	}

	logrus.Infof("registered %d rating policies", registry.Count())
	return registry, nil
}
