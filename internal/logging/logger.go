// Package logging builds the zap logger used by the monitor and the CLI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the log file inside the log directory.
const LogFileName = "autounzip.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	LogDir string // Empty: no log file
	Stderr bool   // Also write to stderr
}

// New builds a production zap logger and returns it with the log file path
// ("" when no file is written).
func New(opts Options) (*zap.Logger, string, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil
	if opts.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	var outputs []string
	var logPath string
	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return nil, "", fmt.Errorf("create log directory: %w", err)
		}
		logPath = filepath.Join(opts.LogDir, LogFileName)
		outputs = append(outputs, logPath)
	}
	if opts.Stderr || len(outputs) == 0 {
		outputs = append(outputs, "stderr")
	}
	config.OutputPaths = outputs
	config.ErrorOutputPaths = outputs

	logger, err := config.Build()
	if err != nil {
		return nil, "", fmt.Errorf("build logger: %w", err)
	}
	return logger, logPath, nil
}
