package config

import (
	"os"
	"strings"
)

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

// ApplyEnv overlays PUBSUB_* environment variables on the config.
// Priority: flags > env > file > defaults; callers apply flags afterwards.
func (c *Config) ApplyEnv() {
	c.Client.PublishKey = getEnvDefault("PUBSUB_PUBLISH_KEY", c.Client.PublishKey)
	c.Client.SubscribeKey = getEnvDefault("PUBSUB_SUBSCRIBE_KEY", c.Client.SubscribeKey)
	c.Client.SecretKey = getEnvDefault("PUBSUB_SECRET_KEY", c.Client.SecretKey)
	c.Client.AuthKey = getEnvDefault("PUBSUB_AUTH_KEY", c.Client.AuthKey)
	c.Client.UserID = getEnvDefault("PUBSUB_USER_ID", c.Client.UserID)
	c.Client.Origin = getEnvDefault("PUBSUB_ORIGIN", c.Client.Origin)
	c.Client.Secure = getEnvBoolDefault("PUBSUB_SECURE", c.Client.Secure)
	c.Client.Presence = getEnvBoolDefault("PUBSUB_PRESENCE", c.Client.Presence)
	c.Client.Proxy = getEnvDefault("PUBSUB_PROXY", c.Client.Proxy)
	c.Logging.Level = getEnvDefault("PUBSUB_LOG_LEVEL", c.Logging.Level)
	c.Logging.Colors = getEnvDefault("PUBSUB_LOG_COLORS", c.Logging.Colors)
	c.Relay.ListenAddr = getEnvDefault("PUBSUB_RELAY_ADDR", c.Relay.ListenAddr)
}
