package monitoring

import (
	"fmt"
	"io"
	"os"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var base = newBaseLogger(os.Stderr)

// Logf is the package-level diagnostic logger. It defaults to the shared
// logrus logger at info level but may be replaced by SetLogger. Tests or
// production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	base.Infof(format, v...)
}

// Debugf logs per-frame detail. It is silent unless the level is debug.
var Debugf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	base.Debugf(format, v...)
}

// SetLogger replaces both package loggers. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		Debugf = Logf
		return
	}
	Logf = f
	Debugf = f
}

// Logger exposes the shared logrus logger for structured fields.
func Logger() *logrus.Logger {
	return base
}

// Options configures the shared logger.
type Options struct {
	// Level is a logrus level name: "debug", "info", "warn" or "error".
	// Empty means info.
	Level string
	// File, when set, receives a copy of every line and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	NoColors   bool
}

// Configure applies opts to the shared logger. The returned closer releases
// the log file, if any.
func Configure(opts Options) (io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}
	base.SetLevel(level)
	base.SetFormatter(newFormatter(opts.NoColors || opts.File != ""))

	if opts.File == "" {
		base.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		LocalTime:  true,
		Compress:   true,
		MaxSize:    orDefault(opts.MaxSizeMB, 100),
		MaxAge:     orDefault(opts.MaxAgeDays, 7),
		MaxBackups: orDefault(opts.MaxBackups, 3),
	}
	base.SetOutput(io.MultiWriter(os.Stderr, file))
	return file, nil
}

func newBaseLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(newFormatter(false))
	return l
}

func newFormatter(noColors bool) *formatter.Formatter {
	return &formatter.Formatter{
		NoColors:        noColors,
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
