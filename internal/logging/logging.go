// Package logging builds the process logger.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Standardized field names for structured logging.
const (
	FieldCandidateID = "candidate_id"
	FieldAccount     = "account"
	FieldCount       = "count"
	FieldOperation   = "operation"
	FieldKey         = "key"
	FieldBackend     = "backend"
	FieldSource      = "source"
	FieldFile        = "file_path"
	FieldOutcome     = "outcome"
)

// New creates a logger writing to w. format is "json" or "text"; an
// unknown level falls back to info with a warning.
func New(level, format string, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		logLevel = logrus.InfoLevel
		logger.SetLevel(logLevel)
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		return logger
	}
	logger.SetLevel(logLevel)
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
