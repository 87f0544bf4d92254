package naming

import "context"

// Trace records the naming decision in force while a factory creates a
// child, so the factory resolves names exactly the way the surrounding
// reconciliation pass did.
type Trace struct {
	// DirID is the directory identifier the child will be stored under.
	DirID string

	// ProjectName is the human-facing name the identifier was derived
	// from.
	ProjectName string
}

// traceKey is a custom type for context keys to avoid collisions.
type traceKey struct{}

// WithTrace returns a context carrying the naming trace.
func WithTrace(ctx context.Context, trace Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// TraceFrom extracts the naming trace from the context, if present.
func TraceFrom(ctx context.Context) (Trace, bool) {
	trace, ok := ctx.Value(traceKey{}).(Trace)
	return trace, ok
}
