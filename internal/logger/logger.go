package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.Mutex
	log *logrus.Logger
)

// Init (re)initializes the global console logger.
// logLevel should be one of: DEBUG, INFO, WARN, ERROR; anything else falls back to INFO.
func Init(logLevel string) {
	InitWithOutput(logLevel, os.Stdout)
}

// InitWithOutput is Init with an explicit destination, used by a2actl to keep
// stdout free for exported data.
func InitWithOutput(logLevel string, out io.Writer) {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel
		l.Warnf("Invalid log level '%s', defaulting to INFO", logLevel)
	}
	l.SetLevel(level)

	mu.Lock()
	log = l
	mu.Unlock()

	l.WithField("level", level.String()).Debug("Logger initialized")
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	mu.Lock()
	l := log
	mu.Unlock()
	if l == nil {
		Init("INFO")
		return GetLogger()
	}
	return l
}

// Component returns an entry tagged with the emitting component
func Component(name string) *logrus.Entry {
	return GetLogger().WithField("component", name)
}

func Debug(args ...interface{}) {
	GetLogger().Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func Warn(args ...interface{}) {
	GetLogger().Warn(args...)
}

func Warnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

func Error(args ...interface{}) {
	GetLogger().Error(args...)
}

func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	GetLogger().Fatalf(format, args...)
}

// WithField returns a logger entry with a single field
func WithField(key string, value interface{}) *logrus.Entry {
	return GetLogger().WithField(key, value)
}

// WithFields returns a logger entry with multiple fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}
