// Package logging configures the process-wide logrus logger. Stdout belongs
// to the status line, so log output goes to stderr or a rotating file.
package logging

import (
	"io"
	"os"

	"github.com/theirongolddev/burnline/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}()

// Setup builds a logger from config. Debug output is enabled by the debug
// flag; otherwise only warnings and errors are written.
func Setup(cfg config.LogConfig, debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
	}
	l.SetOutput(out)

	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.WarnLevel)
	}
	return l
}

// Close releases a file-backed logger's output.
func Close(l *logrus.Logger) {
	if c, ok := l.Out.(io.Closer); ok && l.Out != os.Stderr {
		_ = c.Close()
	}
}

// OrDiscard returns l, or a logger that drops everything when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return discard
	}
	return l
}
