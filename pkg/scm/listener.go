package scm

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Listener receives the human-readable narrative of one scan or event
// run. It is the run's log, distinct from the structured process log.
type Listener interface {
	// Printf appends one formatted line to the run log.
	Printf(format string, args ...any)

	// Error appends one formatted error line to the run log.
	Error(err error, format string, args ...any)
}

// streamListener writes timestamped lines to an io.Writer. Writes are
// serialized; write failures are dropped since the run log is advisory.
type streamListener struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewListener returns a Listener writing timestamped lines to w.
func NewListener(w io.Writer) Listener {
	return &streamListener{w: w, now: time.Now}
}

func (l *streamListener) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] ", l.now().Format(time.RFC3339))
	fmt.Fprintf(l.w, format, args...)
	fmt.Fprintln(l.w)
}

func (l *streamListener) Error(err error, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] ERROR: ", l.now().Format(time.RFC3339))
	fmt.Fprintf(l.w, format, args...)
	if err != nil {
		fmt.Fprintf(l.w, ": %v", err)
	}
	fmt.Fprintln(l.w)
}

// nopListener discards everything.
type nopListener struct{}

func (nopListener) Printf(string, ...any)       {}
func (nopListener) Error(error, string, ...any) {}

// NopListener returns a Listener that discards all output. It stands in
// when no folder-scoped run log is available.
func NopListener() Listener {
	return nopListener{}
}
