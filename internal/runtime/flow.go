package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Flow is the dataflow graph: a registry of columns keyed by name, the
// derived columns in registration order, and their topological leveling.
//
// The registry is the single authority for dependency resolution; a
// Dependency stores only the target's name, so replacing a column is a
// key-stable swap that leaves every dependent's declaration untouched.
type Flow struct {
	mu sync.Mutex

	provider ports.LogProvider
	registry map[string]Column
	derived  []*Derived
	levels   [][]*Derived

	// computedSteps is the high-water mark of fully processed steps. A
	// column whose log was cleared below this mark is picked up again by
	// the next run via the minimum-length resume rule.
	computedSteps int

	logger *slog.Logger
	hooks  domain.Hooks
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.Hooks) FlowOption {
	return func(f *Flow) {
		f.hooks = hooks
	}
}

// New builds a flow from the chosen leaf (sink) derived columns.
//
// Discovery follows non-self dependency edges backward from the leaves
// through the defined set. A referenced source column that was not defined
// is registered automatically with a log from the provider; a referenced
// derived column that was not defined is a configuration error. Defined
// columns not reachable from any leaf are left out of the flow.
func New(provider ports.LogProvider, defined []Column, leaves []*Derived, opts ...FlowOption) (*Flow, error) {
	if provider == nil {
		return nil, fmt.Errorf("log provider is required")
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("at least one leaf column is required")
	}

	f := &Flow{
		provider: provider,
		registry: make(map[string]Column),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	known := make(map[string]Column, len(defined))
	for _, c := range defined {
		if prev, ok := known[c.Name()]; ok && prev != c {
			return nil, fmt.Errorf("column %q: %w", c.Name(), domain.ErrDuplicateColumn)
		}
		known[c.Name()] = c
	}
	for _, leaf := range leaves {
		if prev, ok := known[leaf.Name()]; ok && prev != Column(leaf) {
			return nil, fmt.Errorf("column %q: %w", leaf.Name(), domain.ErrDuplicateColumn)
		}
		known[leaf.Name()] = leaf
	}

	// Reachability walk from the leaves, backward over dependency edges.
	queue := make([]*Derived, 0, len(leaves))
	for _, leaf := range leaves {
		if err := f.register(leaf); err != nil {
			return nil, err
		}
		queue = append(queue, leaf)
	}
	for len(queue) > 0 {
		col := queue[0]
		queue = queue[1:]

		for _, dep := range col.Dependencies() {
			if dep.Self() {
				continue
			}
			if _, ok := f.registry[dep.Target]; ok {
				continue
			}
			target, err := f.resolveTarget(known, dep)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col.Name(), err)
			}
			if err := f.register(target); err != nil {
				return nil, err
			}
			if d, ok := target.(*Derived); ok {
				queue = append(queue, d)
			}
		}
	}

	levels, err := levelize(f.derived)
	if err != nil {
		return nil, err
	}
	f.levels = levels
	return f, nil
}

// resolveTarget finds or creates the column a dependency points at.
func (f *Flow) resolveTarget(known map[string]Column, dep domain.Dependency) (Column, error) {
	if c, ok := known[dep.Target]; ok {
		return c, nil
	}
	if dep.Kind == domain.RefSource {
		log, err := f.provider.Open(dep.Target)
		if err != nil {
			return nil, fmt.Errorf("open log for source %q: %w", dep.Target, err)
		}
		return NewSource(dep.Target, log), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrDependencyNotFound, dep.Target)
}

// register adds a column to the registry, rejecting name collisions
// between distinct objects.
func (f *Flow) register(c Column) error {
	if prev, ok := f.registry[c.Name()]; ok {
		if prev != c {
			return fmt.Errorf("column %q: %w", c.Name(), domain.ErrDuplicateColumn)
		}
		return nil
	}
	f.registry[c.Name()] = c
	if d, ok := c.(*Derived); ok {
		f.derived = append(f.derived, d)
	}
	return nil
}

// Value returns the stored value of a column at a step, or absence.
func (f *Flow) Value(ctx context.Context, name string, step int) (string, bool, error) {
	f.mu.Lock()
	col, ok := f.registry[name]
	f.mu.Unlock()
	if !ok {
		return "", false, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, name)
	}
	return col.Log().Get(ctx, step)
}

// Len returns the number of stored steps for a column.
func (f *Flow) Len(ctx context.Context, name string) (int, error) {
	f.mu.Lock()
	col, ok := f.registry[name]
	f.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, name)
	}
	return col.Log().Len(ctx)
}

// Push appends a value to the named source column.
func (f *Flow) Push(ctx context.Context, name, value string) error {
	f.mu.Lock()
	col, ok := f.registry[name]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrColumnNotFound, name)
	}
	src, ok := col.(*Source)
	if !ok {
		return fmt.Errorf("column %q is not a source", name)
	}
	return src.Push(ctx, value)
}

// Columns returns every column name: sources first (sorted by topology of
// registration), then derived columns in topological order.
func (f *Flow) Columns() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.registry))
	for _, c := range f.sources() {
		names = append(names, c.Name())
	}
	for _, level := range f.levels {
		for _, d := range level {
			names = append(names, d.Name())
		}
	}
	return names
}

// Levels returns the topological leveling as column names. Columns in the
// same inner slice have no current-temporal ordering dependency and run
// concurrently.
func (f *Flow) Levels() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]string, len(f.levels))
	for i, level := range f.levels {
		out[i] = make([]string, len(level))
		for j, d := range level {
			out[i][j] = d.Name()
		}
	}
	return out
}

// Dependencies returns the declared dependencies of a column. Source
// columns have none.
func (f *Flow) Dependencies(name string) ([]domain.Dependency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	col, ok := f.registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, name)
	}
	d, ok := col.(*Derived)
	if !ok {
		return nil, nil
	}
	return append([]domain.Dependency(nil), d.Dependencies()...), nil
}

// sources returns the source columns in derived-independent registry
// order (stable by first registration). Callers must hold f.mu.
func (f *Flow) sources() []*Source {
	out := make([]*Source, 0, len(f.registry)-len(f.derived))
	seen := make(map[string]bool, len(f.derived))
	for _, d := range f.derived {
		seen[d.Name()] = true
	}
	// Walk derived declaration order so source ordering is deterministic.
	for _, d := range f.derived {
		for _, dep := range d.Dependencies() {
			if dep.Self() || seen[dep.Target] {
				continue
			}
			if src, ok := f.registry[dep.Target].(*Source); ok {
				out = append(out, src)
				seen[dep.Target] = true
			}
		}
	}
	// Sources registered by mutation but not yet referenced.
	for name, c := range f.registry {
		if src, ok := c.(*Source); ok && !seen[name] {
			out = append(out, src)
			seen[name] = true
		}
	}
	return out
}
