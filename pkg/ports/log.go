package ports

import "context"

// Log is the per-column append-only storage contract.
//
// Values live at sequential, gapless step indices starting at 0: Push
// always appends at index Len. Get for any step >= Len reports absence
// (ok == false), never an error. Durable implementations must re-derive
// Len across process restarts by counting persisted entries.
type Log interface {
	// Get retrieves the value stored at step. ok is false when nothing is
	// stored there; err is reserved for backing-store failures.
	Get(ctx context.Context, step int) (value string, ok bool, err error)

	// Push appends value at index Len.
	Push(ctx context.Context, value string) error

	// Len returns the count of contiguous stored steps from 0.
	Len(ctx context.Context) (int, error)

	// Clear resets the log to empty (Len == 0).
	Clear(ctx context.Context) error
}

// LogProvider is a factory handing each column an isolated Log instance
// from a shared backing store (one directory per column on disk, one
// table keyed by column name, etc.).
type LogProvider interface {
	// Open returns the log for the named column, creating it lazily.
	Open(name string) (Log, error)
}
