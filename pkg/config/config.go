package config

import (
	"time"
)

// Config represents the main configuration for a pub/sub client
type Config struct {
	Client    ClientConfig    `yaml:"client"`
	Subscribe SubscribeConfig `yaml:"subscribe"`
	Retry     RetryConfig     `yaml:"retry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Relay     RelayConfig     `yaml:"relay"`
}

// ClientConfig holds the account keys and the identity the client presents
type ClientConfig struct {
	PublishKey       string `yaml:"publish_key"`
	SubscribeKey     string `yaml:"subscribe_key"`
	SecretKey        string `yaml:"secret_key"` // Enables request signing when set
	AuthKey          string `yaml:"auth_key"`   // Access manager token sent with every request
	UserID           string `yaml:"user_id"`    // Presence identity; a UUID is generated if empty
	Origin           string `yaml:"origin"`     // "host[:port]"
	Secure           bool   `yaml:"secure"`
	Agent            string `yaml:"agent"` // User-Agent header
	FilterExpression string `yaml:"filter_expression"`
	Presence         bool   `yaml:"presence"` // Subscribe to presence channels as well
	Proxy            string `yaml:"proxy"`    // socks5://, http:// or https:// proxy URL
}

// SubscribeConfig tunes the subscribe loop and the one-shot operations
type SubscribeConfig struct {
	RequestTimeout    time.Duration `yaml:"request_timeout"`    // publish, presence, here-now
	LongPollTimeout   time.Duration `yaml:"long_poll_timeout"`  // subscribe requests
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"` // 0 disables presence heartbeats
	PresenceTimeout   time.Duration `yaml:"presence_timeout"`
	QueueSize         int           `yaml:"queue_size"` // per-listener delivery queue
	SkipMalformed     bool          `yaml:"skip_malformed"`
	StatusBuffer      int           `yaml:"status_buffer"`
}

// RetryConfig is the backoff policy for failed polls
type RetryConfig struct {
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Multiplier float64       `yaml:"multiplier"`
	Jitter     float64       `yaml:"jitter"`      // fraction of the delay, 0..1
	JitterMode string        `yaml:"jitter_mode"` // uniform, none
}

// RelayConfig configures the HTTP/WebSocket relay
type RelayConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Jitter modes
const (
	JitterUniform = "uniform"
	JitterNone    = "none"
)

// DefaultOrigin is the public edge of the message bus.
const DefaultOrigin = "ps.pndsn.com"

// DefaultConfig returns a configuration with sane defaults
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Origin: DefaultOrigin,
			Secure: true,
			Agent:  "Go-PubSub-Client",
		},
		Subscribe: SubscribeConfig{
			RequestTimeout:    10 * time.Second,
			LongPollTimeout:   310 * time.Second,
			HeartbeatInterval: 0,
			PresenceTimeout:   300 * time.Second,
			QueueSize:         100,
			SkipMalformed:     true,
			StatusBuffer:      32,
		},
		Retry: RetryConfig{
			BaseDelay:  time.Second,
			MaxDelay:   32 * time.Second,
			Multiplier: 2,
			Jitter:     0.2,
			JitterMode: JitterUniform,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Colors: ColorsAuto,
		},
		Relay: RelayConfig{
			ListenAddr: ":7070",
		},
	}
}
