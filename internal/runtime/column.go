package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Column is any named participant in a flow. Every column owns one
// append-only, step-indexed log.
type Column interface {
	Name() string
	Log() ports.Log
}

// Source is an externally-fed column. Values arrive via Push; the engine
// never computes a source.
type Source struct {
	name string
	log  ports.Log
}

// NewSource creates a source column backed by the given log.
func NewSource(name string, log ports.Log) *Source {
	return &Source{name: name, log: log}
}

// Name returns the column's unique name.
func (s *Source) Name() string { return s.name }

// Log returns the column's storage log.
func (s *Source) Log() ports.Log { return s.log }

// Push appends a new step's value to the source.
func (s *Source) Push(ctx context.Context, value string) error {
	return s.log.Push(ctx, value)
}

// Derived is a computed column: an ordered dependency list, a compute
// function, and an optional transform that rewrites the resolved context
// before assembly.
type Derived struct {
	name      string
	log       ports.Log
	deps      []domain.Dependency
	completer ports.Completer
	transform domain.Transform

	// wrapTags is the static per-column wrapping decision: true when the
	// column declares more than one non-self dependency. It never varies
	// per step, even at steps where only one dependency has data.
	wrapTags bool
}

// NewDerived creates a derived column and validates its dependency list.
func NewDerived(name string, log ports.Log, completer ports.Completer, deps ...domain.Dependency) (*Derived, error) {
	if len(deps) == 0 {
		return nil, fmt.Errorf("column %q: %w", name, domain.ErrNoDependencies)
	}
	if completer == nil {
		return nil, fmt.Errorf("column %q: completer is required", name)
	}

	nonSelf := 0
	for _, d := range deps {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		if !d.Self() {
			nonSelf++
		}
	}

	return &Derived{
		name:      name,
		log:       log,
		deps:      deps,
		completer: completer,
		wrapTags:  nonSelf > 1,
	}, nil
}

// WithTransform attaches a context transform hook and returns the column.
func (d *Derived) WithTransform(t domain.Transform) *Derived {
	d.transform = t
	return d
}

// Name returns the column's unique name.
func (d *Derived) Name() string { return d.name }

// Log returns the column's storage log.
func (d *Derived) Log() ports.Log { return d.log }

// Dependencies returns the column's declared dependency list.
func (d *Derived) Dependencies() []domain.Dependency { return d.deps }
