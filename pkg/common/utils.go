// Copyright (c) 2023 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func GetEnvInt(key string, fallback int) int {
	str := GetEnv(key, strconv.Itoa(fallback))
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}

	return val
}

// ParseLogLevel parses a logrus level name, falling back to info.
func ParseLogLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// UserKeySeparator joins the namespace and user ID in a UserKey.
// Neither part may contain it, otherwise two users could share a key.
const UserKeySeparator = ":"

// UserKey joins a namespace and user ID into the key namespacing per-user rating state.
func UserKey(namespace, userID string) string {
	if namespace == "" {
		return userID
	}
	return namespace + UserKeySeparator + userID
}
