package misc

import "github.com/sirupsen/logrus"

// rootLogger is shared process-wide the way the teacher shares a single
// ConfigLoader; components never construct their own logrus.Logger.
var rootLogger = newRootLogger()

func newRootLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// SetLogLevel adjusts verbosity for the whole process; wired from the CLI's
// --verbose flag.
func SetLogLevel(level logrus.Level) {
	rootLogger.SetLevel(level)
}

// NewComponentLogger returns a named logger the way the original source's
// Component base class lazily attaches a logger keyed by class name.
func NewComponentLogger(name string) *logrus.Entry {
	return rootLogger.WithField("component", name)
}
