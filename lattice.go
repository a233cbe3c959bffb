package lattice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Run is the dual-natured result of one engine invocation: an event
// stream and an awaitable over the same execution.
type Run = runtime.Run

// DerivedSpec declares a computed column for engine construction.
type DerivedSpec struct {
	// Name is the column's unique name within the flow.
	Name string

	// Completer is the external compute function invoked per step.
	Completer ports.Completer

	// Transform optionally rewrites the resolved context before assembly.
	Transform domain.Transform

	// Dependencies is the ordered list of what the column reads.
	Dependencies []domain.Dependency
}

// Engine is the high-level entry point for the Lattice library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	flow     *runtime.Flow
	provider ports.LogProvider
	leaves   []string
	hooks    domain.Hooks
	logger   *slog.Logger
	Name     string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogProvider injects the storage backend for column logs.
// Defaults to an in-memory provider.
func WithLogProvider(p ports.LogProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithName labels the engine in log output.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// WithLeaves restricts flow discovery to the named sink columns. By
// default every declared derived column is a leaf; with this option,
// columns unreachable from the chosen leaves are left out of the flow.
func WithLeaves(names ...string) Option {
	return func(e *Engine) {
		e.leaves = names
	}
}

// New initializes a Lattice Engine from the declared derived columns.
// Source columns referenced by the specs are registered automatically
// with logs from the configured provider.
func New(specs []DerivedSpec, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.provider == nil {
		eng.provider = memory.NewProvider()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("flow", eng.Name)
	}

	built := make(map[string]*runtime.Derived, len(specs))
	defined := make([]runtime.Column, 0, len(specs))
	for _, spec := range specs {
		col, err := buildDerived(eng.provider, spec)
		if err != nil {
			return nil, err
		}
		built[spec.Name] = col
		defined = append(defined, col)
	}

	var leaves []*runtime.Derived
	if len(eng.leaves) == 0 {
		for _, spec := range specs {
			leaves = append(leaves, built[spec.Name])
		}
	} else {
		for _, name := range eng.leaves {
			col, ok := built[name]
			if !ok {
				return nil, fmt.Errorf("leaf %q: %w", name, domain.ErrColumnNotFound)
			}
			leaves = append(leaves, col)
		}
	}

	flow, err := runtime.New(eng.provider, defined, leaves,
		runtime.WithLogger(eng.logger),
		runtime.WithHooks(eng.hooks),
	)
	if err != nil {
		return nil, err
	}
	eng.flow = flow
	return eng, nil
}

func buildDerived(provider ports.LogProvider, spec DerivedSpec) (*runtime.Derived, error) {
	log, err := provider.Open(spec.Name)
	if err != nil {
		return nil, fmt.Errorf("open log for column %q: %w", spec.Name, err)
	}
	col, err := runtime.NewDerived(spec.Name, log, spec.Completer, spec.Dependencies...)
	if err != nil {
		return nil, err
	}
	if spec.Transform != nil {
		col.WithTransform(spec.Transform)
	}
	return col, nil
}

// Run advances every derived column to the least-advanced source. The
// result can be iterated for events or awaited for completion.
func (e *Engine) Run(ctx context.Context) *Run {
	return e.flow.Run(ctx)
}

// Push appends a new step's value to the named source column.
func (e *Engine) Push(ctx context.Context, source, value string) error {
	return e.flow.Push(ctx, source, value)
}

// Value returns the stored value of a column at a step, or absence.
func (e *Engine) Value(ctx context.Context, column string, step int) (string, bool, error) {
	return e.flow.Value(ctx, column, step)
}

// Len returns the number of stored steps for a column.
func (e *Engine) Len(ctx context.Context, column string) (int, error) {
	return e.flow.Len(ctx, column)
}

// Columns returns every column name in the flow, sources first, derived
// columns in topological order.
func (e *Engine) Columns() []string {
	return e.flow.Columns()
}

// Levels returns the topological leveling of the derived columns.
func (e *Engine) Levels() [][]string {
	return e.flow.Levels()
}

// Dependents returns every column depending on the named one, directly
// or transitively, in topological order.
func (e *Engine) Dependents(column string) ([]string, error) {
	return e.flow.Dependents(column)
}

// Dependencies returns the declared dependencies of a column. Source
// columns have none.
func (e *Engine) Dependencies(column string) ([]domain.Dependency, error) {
	return e.flow.Dependencies(column)
}

// AddSource registers a new source column in the live flow.
func (e *Engine) AddSource(name string) error {
	log, err := e.provider.Open(name)
	if err != nil {
		return fmt.Errorf("open log for source %q: %w", name, err)
	}
	return e.flow.AddColumn(runtime.NewSource(name, log))
}

// AddDerived registers a new derived column in the live flow. Past steps
// are backfilled by the next Run.
func (e *Engine) AddDerived(spec DerivedSpec) error {
	col, err := buildDerived(e.provider, spec)
	if err != nil {
		return err
	}
	return e.flow.AddColumn(col)
}

// RemoveColumn deletes a derived column nothing else depends on.
func (e *Engine) RemoveColumn(name string) error {
	return e.flow.RemoveColumn(name)
}

// ReplaceColumn swaps a derived column for a new definition under the
// same name, clearing its history and that of every transitive dependent.
func (e *Engine) ReplaceColumn(ctx context.Context, name string, spec DerivedSpec) error {
	if spec.Name != name {
		return fmt.Errorf("%w: have %q, want %q", domain.ErrNameMismatch, spec.Name, name)
	}
	col, err := buildDerived(e.provider, spec)
	if err != nil {
		return err
	}
	return e.flow.ReplaceColumn(ctx, name, col)
}
