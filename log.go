package ilp

import (
	"fmt"
	"log"
)

// Logger is the pluggable logging sink used by the Sender for transport
// events: retry attempts, handshake progress, connection teardown. It is
// never called on the row-building hot path.
type Logger interface {
	Log(message any)
	Logf(format string, v ...any)
}

type defaultLogger struct{}

func newDefaultLogger() Logger {
	return defaultLogger{}
}

func (defaultLogger) Log(message any) {
	log.Printf("[ILP] %v\n", message)
}

func (d defaultLogger) Logf(format string, v ...any) {
	d.Log(fmt.Sprintf(format, v...))
}

// nopLogger discards everything; used by tests.
type nopLogger struct{}

func (nopLogger) Log(any)             {}
func (nopLogger) Logf(string, ...any) {}
