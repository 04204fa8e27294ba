// Package logging implements application log initialization and a pluggable
// logger interface used by the router packages.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger instances provide custom logging.
type Logger interface {

	// Log with level ERROR
	Error(...interface{})

	// Log formatted messages with level ERROR
	Errorf(string, ...interface{})

	// Log with level WARN
	Warn(...interface{})

	// Log formatted messages with level WARN
	Warnf(string, ...interface{})

	// Log with level INFO
	Info(...interface{})

	// Log formatted messages with level INFO
	Infof(string, ...interface{})

	// Log with level DEBUG
	Debug(...interface{})

	// Log formatted messages with level DEBUG
	Debugf(string, ...interface{})
}

// DefaultLog provides a default implementation of the Logger interface,
// printing to the logrus standard logger.
type DefaultLog struct{}

func (DefaultLog) Error(a ...interface{})            { logrus.Error(a...) }
func (DefaultLog) Errorf(f string, a ...interface{}) { logrus.Errorf(f, a...) }
func (DefaultLog) Warn(a ...interface{})             { logrus.Warn(a...) }
func (DefaultLog) Warnf(f string, a ...interface{})  { logrus.Warnf(f, a...) }
func (DefaultLog) Info(a ...interface{})             { logrus.Info(a...) }
func (DefaultLog) Infof(f string, a ...interface{})  { logrus.Infof(f, a...) }
func (DefaultLog) Debug(a ...interface{})            { logrus.Debug(a...) }
func (DefaultLog) Debugf(f string, a ...interface{}) { logrus.Debugf(f, a...) }

type prefixFormatter struct {
	prefix    string
	formatter logrus.Formatter
}

// Options for initializing the application log.
type Options struct {

	// Prefix for application log entries.
	ApplicationLogPrefix string

	// Output for the application log entries, when nil, os.Stderr is used.
	ApplicationLogOutput io.Writer

	// When set, log entries are printed in JSON format.
	ApplicationLogJSONEnabled bool

	// When set, debug level entries are printed, too.
	Debug bool
}

func (f *prefixFormatter) Format(e *logrus.Entry) ([]byte, error) {
	b, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}

	return append([]byte(f.prefix), b...), nil
}

// Init initializes the application log on the logrus standard logger, which
// all router packages log to by default.
func Init(o Options) {
	if o.ApplicationLogJSONEnabled {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else if o.ApplicationLogPrefix != "" {
		logrus.SetFormatter(&prefixFormatter{
			o.ApplicationLogPrefix, logrus.StandardLogger().Formatter})
	}

	if o.ApplicationLogOutput != nil {
		logrus.SetOutput(o.ApplicationLogOutput)
	}

	if o.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
