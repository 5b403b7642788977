// Package logging provides an explicit, non-singleton structured logging
// sink for the engine and CLI. Every component that wants to log takes a
// *Logger as a constructor argument; nothing reaches for process-wide
// global state.
package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-logfmt/logfmt"
)

// Logger is a minimal structured sink writing logfmt-encoded lines.
// Safe for concurrent use; encoding a single line is serialized under mu
// so interleaved writers never interleave keys mid-line.
type Logger struct {
	mu  sync.Mutex
	enc *logfmt.Encoder
}

// New wraps w in a Logger. Use io.Discard in tests that don't care about
// log output.
func New(w io.Writer) *Logger {
	return &Logger{enc: logfmt.NewEncoder(w)}
}

// Event writes one logfmt line: msg="..." plus the given key/value pairs,
// in order. kvs must have an even length; an odd trailing key is dropped.
func (l *Logger) Event(msg string, kvs ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.enc.EncodeKeyval("msg", msg)
	for i := 0; i+1 < len(kvs); i += 2 {
		_ = l.enc.EncodeKeyval(kvs[i], kvs[i+1])
	}
	_ = l.enc.EndRecord()
}

// Errorf is a convenience wrapper logging an event with msg=error and the
// formatted message under the "detail" key.
func (l *Logger) Errorf(format string, args ...any) {
	l.Event("error", "detail", fmt.Sprintf(format, args...))
}

// Discard is a Logger that writes to io.Discard, for callers (tests,
// library consumers) that don't want log output.
func Discard() *Logger {
	return New(io.Discard)
}
