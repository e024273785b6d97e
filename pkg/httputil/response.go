package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
)

// WriteJSON writes v as the response body. Encoding errors are dropped since
// the status line is already out.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a locally produced error in the same {code, message}
// shape errors.WriteHTTPError uses for errors returned by the bus.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, &errors.HTTPError{
		Status:  status,
		Code:    errors.CodeForStatus(status),
		Message: msg,
	})
}
