package client

import (
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pubsub-client/pkg/config"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
)

// newClientLogger creates a zap.Logger based on quiet mode preference.
// Quiet mode returns a production logger with Warn+ level and reduced noise.
// Non-quiet returns a development logger with debug/info output.
func newClientLogger(quiet bool) (*zap.Logger, error) {
	if quiet {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	return zap.NewDevelopment()
}

// loggerFromConfig builds the component logger described by the logging
// section of the config.
func loggerFromConfig(lc config.LoggingConfig) (*logging.ColoredLogger, error) {
	return logging.NewLogger(lc.LoggerOptions())
}
