package httputil

import (
	"strings"
)

// MaxChannelNameLength is the longest channel or group name the bus accepts.
const MaxChannelNameLength = 92

// ValidateChannelName checks if a channel or channel group name is usable.
// Valid names must:
// - Not be empty after trimming
// - Be at most MaxChannelNameLength bytes
// - Not contain commas, slashes, backslashes, asterisks, colons or whitespace
func ValidateChannelName(name string) bool {
	if strings.TrimSpace(name) == "" || len(name) > MaxChannelNameLength {
		return false
	}
	return !strings.ContainsAny(name, ",/\\*: \t\r\n")
}

// FirstInvalidChannel returns the first name ValidateChannelName rejects.
func FirstInvalidChannel(names []string) (string, bool) {
	for _, n := range names {
		if !ValidateChannelName(n) {
			return n, true
		}
	}
	return "", false
}
