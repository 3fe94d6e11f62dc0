// Package logs prints the [APP] [LEVEL] prefixed lines of the command line and server.
package logs

import (
	"log"
	"sync/atomic"

	"github.com/logrusorgru/aurora"
)

var colored atomic.Bool

func init() {
	colored.Store(true)
}

// SetColor toggles ANSI colors on the level tag, e.g. off when output is not a terminal.
func SetColor(on bool) {
	colored.Store(on)
}

func tag(level string, color func(interface{}) aurora.Value) string {
	if !colored.Load() {
		return "[APP] [" + level + "]"
	}
	return "[APP] [" + color(level).String() + "]"
}

// Info logs a routine event.
func Info(format string, args ...interface{}) {
	log.Printf(tag("INFO", aurora.Green)+" "+format, args...)
}

// Error logs a failure that did not stop the process.
func Error(format string, args ...interface{}) {
	log.Printf(tag("ERROR", aurora.Red)+" "+format, args...)
}

// Fatal logs and exits.
func Fatal(format string, args ...interface{}) {
	log.Fatalf(tag("FATAL", aurora.Magenta)+" "+format, args...)
}
