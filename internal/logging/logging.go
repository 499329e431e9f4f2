package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New builds the process logger. Unknown levels fall back to info.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Discard is a logger for tests and library defaults.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Or returns l, or a discarding logger when l is nil.
func Or(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
