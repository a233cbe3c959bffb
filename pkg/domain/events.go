package domain

import (
	"context"
	"time"
)

// EventKind defines the category of a run event.
type EventKind string

const (
	// EventStart announces that a column began computing a step.
	EventStart EventKind = "start"
	// EventDelta carries one streamed fragment of an in-progress value.
	EventDelta EventKind = "delta"
	// EventValue carries the final value committed for a column's step.
	EventValue EventKind = "value"
)

// Event is one element of the stream a run emits. Delta is set only for
// EventDelta, Value only for EventValue.
type Event struct {
	Kind   EventKind `json:"kind"`
	Column string    `json:"column"`
	Step   int       `json:"step"`
	Delta  string    `json:"delta,omitempty"`
	Value  string    `json:"value,omitempty"`
}

// Hooks defines callbacks for engine observability. All callbacks are
// optional and must be safe to invoke from concurrently computing columns.
type Hooks struct {
	// OnColumnStart fires when a column begins computing a step.
	OnColumnStart func(ctx context.Context, column string, step int)
	// OnColumnDone fires when a column's step finishes (or fails).
	OnColumnDone func(ctx context.Context, column string, step int, elapsed time.Duration, err error)
}
