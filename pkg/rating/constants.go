// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rating

import "strings"

// Partition is the storage partition holding every rating key.
const Partition = "dynamic_rating"

// Key suffixes, each prefixed by the engine base key.
const (
	DefaultBaseKey = "adr_key_"

	KeyFirstLaunch  = "first_launch"
	KeyLastLaunch   = "last_launch"
	KeyLastReminder = "last_reminder"
	KeyLaunchCount  = "launch_count"
	KeyIsRequest    = "is_request"
)

// Default thresholds used when a Config leaves them unset.
const (
	DefaultRateInterval   = 2 // days since first launch
	DefaultRateCount      = 5 // launches while requesting
	DefaultRemindInterval = 2 // days since last reminder
)

// Stored value defaults. The last reminder default is per engine, see Config.ReminderBaseline.
const (
	DefaultFirstLaunch int64 = 0
	DefaultLastLaunch  int64 = 0
	DefaultLaunchCount       = 0
	DefaultIsRequest         = true
)

// Rating values reported by a prompt.
const (
	RatingUnknown  float64 = -1
	RatingPositive float64 = 4
)

// MaxIntervalDays caps day thresholds so they stay representable in milliseconds.
const MaxIntervalDays = 36500

// MillisPerDay is the length of a threshold day.
const MillisPerDay int64 = 24 * 60 * 60 * 1000

// StateGroup returns the base key owning a stored key without its trailing
// separator, or "" when key does not end in an engine suffix.
func StateGroup(key string) string {
	for _, suffix := range allKeys {
		if strings.HasSuffix(key, suffix) {
			return strings.TrimSuffix(strings.TrimSuffix(key, suffix), "_")
		}
	}
	return ""
}

// allKeys lists every suffix owned by an engine.
var allKeys = []string{
	KeyFirstLaunch,
	KeyLastLaunch,
	KeyLastReminder,
	KeyLaunchCount,
	KeyIsRequest,
}
