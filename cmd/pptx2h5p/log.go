package main

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger writes timestamped status lines to w at the given level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
