package httputil

import (
	"fmt"
	"net/http"
	"strings"
)

// RequireChannel rejects a blank or unusable channel name with a 400 naming
// field. It reports whether the handler may continue.
func RequireChannel(w http.ResponseWriter, name, field string) bool {
	if strings.TrimSpace(name) == "" {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("%s is required", field))
		return false
	}
	if !ValidateChannelName(name) {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s name: %s", field, name))
		return false
	}
	return true
}

// RequireChannels is RequireChannel for the channel and group lists of a
// subscribe request. At least one name must be present.
func RequireChannels(w http.ResponseWriter, channels, groups []string) bool {
	if len(channels) == 0 && len(groups) == 0 {
		WriteError(w, http.StatusBadRequest, "missing 'channel' or 'group'")
		return false
	}
	if bad, found := FirstInvalidChannel(channels); found {
		WriteError(w, http.StatusBadRequest, "invalid channel name: "+bad)
		return false
	}
	if bad, found := FirstInvalidChannel(groups); found {
		WriteError(w, http.StatusBadRequest, "invalid group name: "+bad)
		return false
	}
	return true
}
