package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Run is the result of one engine invocation. It is consumable two ways
// over the same underlying execution: iterate Events for incremental
// updates, or call Wait to drain silently and observe only the terminal
// error. The computation is never executed twice.
type Run struct {
	events chan domain.Event
	done   chan struct{}
	err    error
}

// Events returns the run's event stream. The channel closes when the run
// finishes; call Err afterwards to observe the terminal state.
func (r *Run) Events() <-chan domain.Event { return r.events }

// Wait drains the remaining events and returns the terminal error.
func (r *Run) Wait() error {
	for range r.events {
	}
	return r.Err()
}

// Err blocks until the run finishes and returns its terminal error.
func (r *Run) Err() error {
	<-r.done
	return r.err
}

// Run advances every derived column to the least-advanced source's length,
// computing only the steps each column is missing. With no new source
// data the run emits nothing and returns immediately.
func (f *Flow) Run(ctx context.Context) *Run {
	r := &Run{
		events: make(chan domain.Event),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		r.err = f.run(ctx, r.events)
		close(r.events)
	}()
	return r
}

func (f *Flow) run(ctx context.Context, events chan<- domain.Event) error {
	f.mu.Lock()
	levels := f.levels
	srcs := f.sources()
	derived := f.derived
	computed := f.computedSteps
	f.mu.Unlock()

	// Nothing can be computed past the least-advanced source.
	maxSteps := 0
	for i, src := range srcs {
		n, err := src.Log().Len(ctx)
		if err != nil {
			return err
		}
		if i == 0 || n < maxSteps {
			maxSteps = n
		}
	}

	// Resume from the lowest water mark: a column whose log was cleared
	// (replace, invalidation) restarts from its own length while the
	// others skip steps they already hold.
	startStep := computed
	for _, d := range derived {
		n, err := d.Log().Len(ctx)
		if err != nil {
			return err
		}
		if n < startStep {
			startStep = n
		}
	}

	if startStep < maxSteps {
		f.logger.Debug("run starting", "from_step", startStep, "to_step", maxSteps-1)
	}

	for step := startStep; step < maxSteps; step++ {
		for _, level := range levels {
			var pending []*Derived
			for _, d := range level {
				n, err := d.Log().Len(ctx)
				if err != nil {
					return err
				}
				if n <= step {
					pending = append(pending, d)
				}
			}

			switch len(pending) {
			case 0:
			case 1:
				if err := f.computeStep(ctx, pending[0], step, events); err != nil {
					return err
				}
			default:
				// Fan out the level. Each column sends its own events in
				// order; cross-column interleaving follows real readiness.
				errs := make(chan error, len(pending))
				for _, d := range pending {
					go func(d *Derived) {
						errs <- f.computeStep(ctx, d, step, events)
					}(d)
				}
				var firstErr error
				for range pending {
					if err := <-errs; err != nil && firstErr == nil {
						firstErr = err
					}
				}
				if firstErr != nil {
					return firstErr
				}
			}
		}

		// The step is fully committed; a failure later never rewinds it.
		f.mu.Lock()
		if step+1 > f.computedSteps {
			f.computedSteps = step + 1
		}
		f.mu.Unlock()
	}

	return nil
}

// computeStep resolves, assembles, computes, and commits one column at
// one step, emitting start/delta/value events along the way.
func (f *Flow) computeStep(ctx context.Context, col *Derived, step int, events chan<- domain.Event) error {
	if f.hooks.OnColumnStart != nil {
		f.hooks.OnColumnStart(ctx, col.Name(), step)
	}
	began := time.Now()

	value, err := f.computeValue(ctx, col, step, events)

	if f.hooks.OnColumnDone != nil {
		f.hooks.OnColumnDone(ctx, col.Name(), step, time.Since(began), err)
	}
	if err != nil {
		f.logger.Error("column computation failed", "column", col.Name(), "step", step, "err", err)
		return err
	}

	if err := emit(ctx, events, domain.Event{
		Kind:   domain.EventValue,
		Column: col.Name(),
		Step:   step,
		Value:  value,
	}); err != nil {
		return err
	}
	return col.Log().Push(ctx, value)
}

func (f *Flow) computeValue(ctx context.Context, col *Derived, step int, events chan<- domain.Event) (string, error) {
	entries, err := f.resolveContext(ctx, col, step)
	if err != nil {
		return "", err
	}
	messages := assemble(entries, col.wrapTags)

	if err := emit(ctx, events, domain.Event{
		Kind:   domain.EventStart,
		Column: col.Name(),
		Step:   step,
	}); err != nil {
		return "", err
	}

	streamer, ok := col.completer.(ports.StreamCompleter)
	if !ok {
		return col.completer.Complete(ctx, messages)
	}

	stream, err := streamer.Stream(ctx, messages)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		fragment, more, err := stream.Next(ctx)
		if err != nil {
			// Already-emitted deltas stand; the aborted value is never
			// committed, so the next run retries this step from scratch.
			return "", err
		}
		if !more {
			break
		}
		b.WriteString(fragment)
		if err := emit(ctx, events, domain.Event{
			Kind:   domain.EventDelta,
			Column: col.Name(),
			Step:   step,
			Delta:  fragment,
		}); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// emit sends an event unless the run's context is gone.
func emit(ctx context.Context, events chan<- domain.Event, ev domain.Event) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
