// Copyright (c) 2025 ariusbronte

package userbot

import "strconv"

const (
	Version = "1.2.0"

	// chatPeerOffset is added to a chat id to form its peer id.
	chatPeerOffset = 2000000000
)

const (
	LogTrace   = "trace"
	LogDebug   = "debug"
	LogInfo    = "info"
	LogWarn    = "warn"
	LogError   = "error"
	LogDisable = "disable"
)

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}

func getStr(a, b string) string {
	if a == "" {
		return b
	}
	return a
}
