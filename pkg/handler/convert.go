// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"github.com/AccelByte/extend-dynamic-rating/pkg/prompt"
	"github.com/AccelByte/extend-dynamic-rating/pkg/rating"
)

func stateMap(s rating.State) map[string]any {
	return map[string]any{
		"firstLaunchAt":  s.FirstLaunchAt,
		"lastLaunchAt":   s.LastLaunchAt,
		"lastReminderAt": s.LastReminderAt,
		"launchCount":    s.LaunchCount,
		"isRequesting":   s.IsRequesting,
	}
}

func decisionMap(d prompt.Decision) map[string]any {
	return map[string]any{
		"shouldPrompt": d.ShouldPrompt,
		"requesting":   d.Requesting,
		"dueRating":    d.DueRating,
		"dueCount":     d.DueCount,
		"dueReminder":  d.DueReminder,
		"state":        stateMap(d.State),
	}
}

func responseMap(r prompt.ResponseResult) map[string]any {
	m := map[string]any{
		"kind":  string(r.Kind),
		"state": stateMap(r.State),
	}
	if r.Outcome != "" {
		m["outcome"] = r.Outcome
	}
	return m
}
