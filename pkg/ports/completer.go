package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// Completer is the opaque compute contract a derived column invokes: it
// maps an assembled conversation to a produced value. Implementations
// must be safely invocable concurrently across different columns.
type Completer interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []domain.Message) (string, error)

// Complete invokes the function.
func (f CompleterFunc) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	return f(ctx, messages)
}

// Stream is a pull-based iterator over incrementally produced text
// fragments. The engine concatenates the fragments, in order, into the
// final value.
type Stream interface {
	// Next blocks until the next fragment is ready. ok is false once the
	// stream is exhausted; a non-nil err aborts the computation.
	Next(ctx context.Context) (fragment string, ok bool, err error)
}

// StreamCompleter is implemented by completers that can produce a value
// incrementally. The engine prefers Stream over Complete when available,
// emitting one delta event per fragment.
type StreamCompleter interface {
	Completer
	Stream(ctx context.Context, messages []domain.Message) (Stream, error)
}
