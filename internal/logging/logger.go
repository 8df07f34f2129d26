// Package logging builds the structured logger used across cachestat.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger.
type Options struct {
	// Level is a logrus level name.
	Level string
	// Format is "text" or "json".
	Format string
	// File is an optional log file, rotated by size. Empty logs to Stderr.
	File string
	// Debug overrides Level with debug.
	Debug bool
	// Stderr is the console destination (defaults to os.Stderr).
	Stderr io.Writer
}

// New creates a logger writing to a rotating file or, by default, stderr.
// If the log file cannot be prepared the logger falls back to stderr and
// records a warning.
func New(opts Options) (*logrus.Logger, error) {
	levelName := opts.Level
	if opts.Debug {
		levelName = "debug"
	}

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	output, outErr := buildOutput(opts)

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(output)

	if opts.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: opts.File == ""})
	}

	if outErr != nil {
		logger.WithFields(logrus.Fields{
			"action": "logger_fallback",
			"path":   opts.File,
		}).Warn(outErr.Error())
	}

	return logger, nil
}

func buildOutput(opts Options) (io.Writer, error) {
	if opts.File == "" {
		return opts.Stderr, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return opts.Stderr, fmt.Errorf("creating log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10,
		MaxBackups: 3,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

// RootFields describes the cache root a log line refers to.
func RootFields(category, root string) logrus.Fields {
	return logrus.Fields{
		"category": category,
		"root":     root,
	}
}
