// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package metrics holds the Prometheus collectors of the rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dynamic_rating"

var (
	// SessionsTotal counts recorded sessions per policy.
	SessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of recorded application sessions",
		},
		[]string{"policy_id"},
	)

	// DecisionsTotal counts prompt decisions per policy and result.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Total number of prompt decisions",
		},
		[]string{"policy_id", "should_prompt"},
	)

	// ResponsesTotal counts recorded prompt responses per policy and kind.
	ResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Total number of recorded prompt responses",
		},
		[]string{"policy_id", "kind"},
	)

	// ResetsTotal counts state wipes per policy.
	ResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Total number of rating state resets",
		},
		[]string{"policy_id"},
	)

	// StoreErrorsTotal counts failed preference store operations.
	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of failed rating operations caused by the preference store",
		},
		[]string{"operation"},
	)
)

// Collectors returns every collector of this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		SessionsTotal,
		DecisionsTotal,
		ResponsesTotal,
		ResetsTotal,
		StoreErrorsTotal,
	}
}

// Register registers the collectors with registerer.
func Register(registerer prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}
