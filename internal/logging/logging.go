// Package logging initializes the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls log level and optional file rotation.
type Options struct {
	Level      string
	FilePath   string // empty means stdout only
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// Init builds a JSON-formatted logrus logger. When FilePath is set the
// output rotates through lumberjack; any failure preparing the file falls
// back to stdout rather than aborting startup.
func Init(opts Options) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	logger.SetOutput(buildOutput(logger, opts))

	return logger, nil
}

func buildOutput(logger *logrus.Logger, opts Options) io.Writer {
	if opts.FilePath == "" {
		return os.Stdout
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
		logger.WithError(err).Warn("log directory unavailable, writing to stdout")
		return os.Stdout
	}

	return &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
		LocalTime:  true,
	}
}
