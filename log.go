package vt100

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "vt100",
})

// Logger returns the logger shared by the emulation components.
func Logger() *log.Logger {
	return logger
}

// SetLogger replaces the shared logger.
// Components capture a child logger when they are created, so call this first.
func SetLogger(l *log.Logger) {
	if l != nil {
		logger = l
	}
}

// SetDebug turns on output about terminal codes and other errors if the parameter is `true`.
// Like SetLogger it only affects components created afterwards.
func SetDebug(debug bool) {
	if debug {
		logger.SetLevel(log.DebugLevel)
		return
	}
	logger.SetLevel(log.InfoLevel)
}
