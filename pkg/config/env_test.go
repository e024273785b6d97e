package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv("PUBSUB_SUBSCRIBE_KEY", "sub-env")
	t.Setenv("PUBSUB_AUTH_KEY", "auth-env")
	t.Setenv("PUBSUB_PRESENCE", "yes")
	t.Setenv("PUBSUB_SECURE", "off")
	t.Setenv("PUBSUB_LOG_LEVEL", "debug")
	t.Setenv("PUBSUB_PUBLISH_KEY", "  ")

	cfg := DefaultConfig()
	cfg.Client.PublishKey = "pub-file"
	cfg.ApplyEnv()

	assert.Equal(t, "sub-env", cfg.Client.SubscribeKey)
	assert.Equal(t, "auth-env", cfg.Client.AuthKey)
	assert.Equal(t, "pub-file", cfg.Client.PublishKey, "blank env values are ignored")
	assert.True(t, cfg.Client.Presence)
	assert.False(t, cfg.Client.Secure)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Relay.ListenAddr)
}

func TestGetEnvBoolDefaultUnknownValue(t *testing.T) {
	t.Setenv("PUBSUB_TEST_BOOL", "maybe")
	assert.True(t, getEnvBoolDefault("PUBSUB_TEST_BOOL", true))
	assert.False(t, getEnvBoolDefault("PUBSUB_TEST_BOOL_UNSET", false))
}
