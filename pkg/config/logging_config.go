package config

import "github.com/DeBrosOfficial/pubsub-client/pkg/logging"

// Color modes for LoggingConfig.Colors.
const (
	ColorsAuto   = "auto" // on for console output to stdout
	ColorsAlways = "always"
	ColorsNever  = "never"
)

// LoggingConfig selects where the client and relay log and how it looks.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputFile string `yaml:"output_file"` // appended to; empty for stdout
	Colors     string `yaml:"colors"`      // auto, always, never
}

// ColorsEnabled resolves the color mode. JSON output is never colored.
func (lc LoggingConfig) ColorsEnabled() bool {
	if lc.Format == "json" {
		return false
	}
	switch lc.Colors {
	case ColorsAlways:
		return true
	case ColorsNever:
		return false
	default:
		return lc.OutputFile == ""
	}
}

// LoggerOptions converts the section into options for logging.NewLogger.
func (lc LoggingConfig) LoggerOptions() logging.Options {
	return logging.Options{
		Level:      lc.Level,
		Format:     lc.Format,
		OutputFile: lc.OutputFile,
		Colors:     lc.ColorsEnabled(),
	}
}
