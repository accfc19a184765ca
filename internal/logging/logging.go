// Package logging provides the leveled logger used throughout ospfd,
// backed by logrus so call sites can attach structured fields (area,
// interface, neighbor) instead of interpolating them into the message
// string.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

const levelEnv = "OSPFD_LOG_LEVEL"

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, present := os.LookupEnv(levelEnv)
	if !present {
		base.SetLevel(logrus.InfoLevel)
		return
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		base.SetLevel(logrus.InfoLevel)
		base.Warnf("unknown log level %q, defaulting to info", level)
		return
	}
	base.SetLevel(parsed)
}

// SetLevel changes the package-wide log level at runtime, for the repl's
// "loglvl" command.
func SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	base.SetLevel(parsed)
	return nil
}

// Level returns the package-wide log level's name.
func Level() string {
	return base.GetLevel().String()
}

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields = logrus.Fields

// Logger is a leveled logger scoped to a set of structured fields.
type Logger struct {
	entry *logrus.Entry
}

// Root returns the unscoped package logger.
func Root() *Logger {
	return &Logger{entry: logrus.NewEntry(base)}
}

// With returns a Logger that attaches fields to every subsequent call.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }

// Errorf logs at fatal level and exits the process. Use for start-up
// failures only, e.g. a socket bind failure.
func (l *Logger) Errorf(format string, args ...any) {
	l.entry.Fatalf(format, args...)
}
