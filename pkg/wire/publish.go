package wire

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
)

// DecodePublish decodes the [status, description, timetoken] triple returned
// by publish and signal.
func DecodePublish(op string, body []byte) (timetoken.Timetoken, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return timetoken.Timetoken{}, errors.NewDecodeError(op, err)
	}
	if len(parts) < 3 {
		return timetoken.Timetoken{}, errors.NewDecodeError(op, fmt.Errorf("expected 3 elements, got %d", len(parts)))
	}

	var status int
	if err := json.Unmarshal(parts[0], &status); err != nil {
		return timetoken.Timetoken{}, errors.NewDecodeError(op, fmt.Errorf("status: %w", err))
	}
	var desc string
	_ = json.Unmarshal(parts[1], &desc)
	if status != 1 {
		if desc == "" {
			desc = "publish rejected"
		}
		return timetoken.Timetoken{}, errors.NewServerError(http.StatusBadRequest, "Publish", desc)
	}

	var value string
	if err := json.Unmarshal(parts[2], &value); err != nil {
		return timetoken.Timetoken{}, errors.NewDecodeError(op, fmt.Errorf("timetoken: %w", err))
	}
	tt, err := timetoken.Parse(value, 0)
	if err != nil {
		return timetoken.Timetoken{}, errors.NewDecodeError(op, err)
	}
	return tt, nil
}
