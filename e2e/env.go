//go:build e2e

package e2e

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DeBrosOfficial/pubsub-client/pkg/client"
	"github.com/DeBrosOfficial/pubsub-client/pkg/config"
)

// SkipIfMissingKeys skips tests that need a live account.
func SkipIfMissingKeys(t *testing.T) {
	t.Helper()
	if os.Getenv("PUBSUB_SUBSCRIBE_KEY") == "" || os.Getenv("PUBSUB_PUBLISH_KEY") == "" {
		t.Skip("PUBSUB_PUBLISH_KEY and PUBSUB_SUBSCRIBE_KEY not set; e2e tests skipped")
	}
}

// NewClient builds a client from PUBSUB_* environment variables.
func NewClient(t *testing.T, presence bool) *client.Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ApplyEnv()
	cfg.Client.Presence = presence
	c, err := client.New(cfg, client.WithQuietMode(true))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// GenerateChannel returns a channel name unique to this run.
func GenerateChannel() string {
	return fmt.Sprintf("e2e_%s", uuid.NewString()[:8])
}

// WaitForCondition polls check until it holds or maxWait elapses.
func WaitForCondition(maxWait time.Duration, check func() bool) error {
	deadline := time.Now().Add(maxWait)
	backoff := 100 * time.Millisecond

	for {
		if check() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("condition not met within %v", maxWait)
		}
		time.Sleep(backoff)
		if backoff < time.Second {
			backoff *= 2
		}
	}
}
