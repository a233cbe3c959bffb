package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// AddColumn registers a new column in a live flow. Dependency targets
// that are sources and not yet registered are created automatically;
// referencing an absent derived column is an error. Nothing is computed
// eagerly: the new column's log starts empty, so the next run backfills
// every past step on its own.
func (f *Flow) AddColumn(col Column) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.registry[col.Name()]; ok {
		return fmt.Errorf("column %q: %w", col.Name(), domain.ErrDuplicateColumn)
	}

	d, isDerived := col.(*Derived)
	if isDerived {
		if err := f.registerDependencyTargets(d); err != nil {
			return err
		}
	}

	f.registry[col.Name()] = col
	if isDerived {
		f.derived = append(f.derived, d)
		levels, err := levelize(f.derived)
		if err != nil {
			delete(f.registry, col.Name())
			f.derived = f.derived[:len(f.derived)-1]
			return err
		}
		f.levels = levels
	}
	f.logger.Info("column added", "column", col.Name())
	return nil
}

// RemoveColumn deletes a derived column nothing else depends on.
// Dependents must be removed first; sources cannot be removed at all.
func (f *Flow) RemoveColumn(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	col, ok := f.registry[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrColumnNotFound, name)
	}
	if _, isSource := col.(*Source); isSource {
		return fmt.Errorf("column %q: %w", name, domain.ErrCannotRemoveSource)
	}

	for _, d := range f.derived {
		if d.Name() == name {
			continue
		}
		for _, dep := range d.Dependencies() {
			if !dep.Self() && dep.Target == name {
				return fmt.Errorf("column %q: %w: %q depends on it", name, domain.ErrHasDependents, d.Name())
			}
		}
	}

	delete(f.registry, name)
	for i, d := range f.derived {
		if d.Name() == name {
			f.derived = append(f.derived[:i], f.derived[i+1:]...)
			break
		}
	}

	levels, err := levelize(f.derived)
	if err != nil {
		// Removal cannot introduce a cycle; surface the inconsistency anyway.
		return err
	}
	f.levels = levels
	f.logger.Info("column removed", "column", name)
	return nil
}

// ReplaceColumn swaps a derived column for a new definition under the
// same name. Because dependencies reference registry keys, the swap is
// key-stable: dependents' declarations keep working untouched. The new
// column's log and every transitive dependent's log are cleared, forcing
// the next run to recompute the whole affected cone; unrelated columns
// keep their history.
func (f *Flow) ReplaceColumn(ctx context.Context, name string, col *Derived) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if col.Name() != name {
		return fmt.Errorf("%w: have %q, want %q", domain.ErrNameMismatch, col.Name(), name)
	}
	old, ok := f.registry[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrColumnNotFound, name)
	}
	if _, isSource := old.(*Source); isSource {
		return fmt.Errorf("column %q: %w", name, domain.ErrCannotReplaceSource)
	}

	if err := f.registerDependencyTargets(col); err != nil {
		return err
	}

	dependents := f.dependentsLocked(name)

	oldDerived := make([]*Derived, len(f.derived))
	copy(oldDerived, f.derived)

	f.registry[name] = col
	for i, d := range f.derived {
		if d.Name() == name {
			f.derived[i] = col
			break
		}
	}

	levels, err := levelize(f.derived)
	if err != nil {
		f.registry[name] = old
		f.derived = oldDerived
		return err
	}
	f.levels = levels

	// Invalidate the replaced column and its downstream cone. The old
	// history is intentionally discarded: the definition changed.
	if err := col.Log().Clear(ctx); err != nil {
		return fmt.Errorf("clear %q: %w", name, err)
	}
	for _, dep := range dependents {
		log := f.registry[dep].Log()
		if err := log.Clear(ctx); err != nil {
			return fmt.Errorf("clear dependent %q: %w", dep, err)
		}
	}

	f.logger.Info("column replaced", "column", name, "invalidated", len(dependents)+1)
	return nil
}

// registerDependencyTargets verifies a derived column's dependencies
// resolve within the flow, registering referenced sources on demand.
// Callers must hold f.mu.
func (f *Flow) registerDependencyTargets(d *Derived) error {
	for _, dep := range d.Dependencies() {
		if dep.Self() {
			continue
		}
		if _, ok := f.registry[dep.Target]; ok {
			continue
		}
		if dep.Kind != domain.RefSource {
			return fmt.Errorf("column %q: %w: %q", d.Name(), domain.ErrDependencyNotFound, dep.Target)
		}
		log, err := f.provider.Open(dep.Target)
		if err != nil {
			return fmt.Errorf("open log for source %q: %w", dep.Target, err)
		}
		f.registry[dep.Target] = NewSource(dep.Target, log)
	}
	return nil
}

// Dependents returns every column that depends on name, directly or
// transitively, in the flow's topological order.
func (f *Flow) Dependents(name string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.registry[name]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, name)
	}
	return f.dependentsLocked(name), nil
}

// dependentsLocked computes forward reachability over every non-self
// dependency edge, any temporal mode, and reports the result in
// topological (level) order. Previous-temporal edges may point backward
// across levels, so reachability runs to a fixpoint before ordering.
// Callers must hold f.mu.
func (f *Flow) dependentsLocked(name string) []string {
	dependents := make(map[string][]string, len(f.derived))
	for _, d := range f.derived {
		for _, dep := range d.Dependencies() {
			if !dep.Self() {
				dependents[dep.Target] = append(dependents[dep.Target], d.Name())
			}
		}
	}

	affected := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range dependents[cur] {
			if !affected[next] {
				affected[next] = true
				queue = append(queue, next)
			}
		}
	}

	var out []string
	for _, level := range f.levels {
		for _, d := range level {
			if d.Name() != name && affected[d.Name()] {
				out = append(out, d.Name())
			}
		}
	}
	return out
}
