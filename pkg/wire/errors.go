package wire

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
)

type errorBody struct {
	Status  int    `json:"status"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Service string `json:"service"`
}

// DecodeServerError builds a ServerError from a non-2xx response. The body
// is usually a JSON object with message and service; anything else falls
// back to the HTTP status text.
func DecodeServerError(status int, body []byte) *errors.ServerError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return errors.NewServerError(status, eb.Service, eb.Message)
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" || len(msg) > 256 || strings.HasPrefix(msg, "<") {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "unexpected response"
	}
	return errors.NewServerError(status, "", msg)
}
