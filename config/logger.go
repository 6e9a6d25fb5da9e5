package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a structured logger at the given level.
// Production uses JSON output; other environments use the text formatter.
// Unknown levels fall back to info.
func NewLogger(level string, production bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if production {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
