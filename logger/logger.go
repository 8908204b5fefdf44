package logger

import (
	"github.com/gruntwork-io/go-commons/logging"
	"github.com/sirupsen/logrus"
)

// GetProjectLogger returns the shared project logger.
func GetProjectLogger() *logrus.Entry {
	logger := logging.GetLogger("")
	return logger.WithField("name", "metronome")
}

// GetLogger returns a named logrus logger.
func GetLogger(name string) *logrus.Logger {
	return logging.GetLogger(name)
}
