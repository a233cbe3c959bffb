package runtime

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// resolveContext resolves every dependency of a derived column for one
// step, applies the column's transform hook, and returns the flattened
// entry list in dependency-declaration order.
//
// Callers must hold no locks: resolution only reads settled storage.
func (f *Flow) resolveContext(ctx context.Context, col *Derived, step int) ([]domain.Entry, error) {
	var entries []domain.Entry
	for _, dep := range col.Dependencies() {
		resolved, err := f.resolveDependency(ctx, col, dep, step)
		if err != nil {
			return nil, fmt.Errorf("column %q step %d: %w", col.Name(), step, err)
		}
		entries = append(entries, resolved...)
	}

	if col.transform != nil {
		entries = col.transform(step, entries)
	}
	return entries, nil
}

// resolveDependency expands one dependency into concrete (step, value)
// entries read from the target's log.
func (f *Flow) resolveDependency(ctx context.Context, col *Derived, dep domain.Dependency, step int) ([]domain.Entry, error) {
	target := Column(col)
	if !dep.Self() {
		f.mu.Lock()
		t, ok := f.registry[dep.Target]
		f.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrDependencyNotFound, dep.Target)
		}
		target = t
	}

	// Previous-temporal references never see the step being computed;
	// self is always previous, so a column never reads its own
	// in-progress value.
	ceiling := step
	if dep.Temporal == domain.TemporalPrevious {
		ceiling = step - 1
	}
	if ceiling < 0 {
		return nil, nil
	}

	first := ceiling
	switch dep.Cardinality {
	case domain.CardinalityAll:
		first = 0
	case domain.CardinalityWindow:
		first = ceiling - dep.Window + 1
		if first < 0 {
			first = 0
		}
	}

	var entries []domain.Entry
	for s := first; s <= ceiling; s++ {
		value, ok, err := target.Log().Get(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("read %q step %d: %w", target.Name(), s, err)
		}
		if !ok {
			// Absent steps are skipped, not failures.
			continue
		}
		entries = append(entries, domain.Entry{
			Step:  s,
			Value: value,
			Role:  dep.Role(),
			Tag:   dep.DisplayName(),
			Self:  dep.Self(),
		})
	}
	return entries, nil
}

// assemble turns resolved entries into an ordered, strictly alternating
// message sequence.
//
// Entries are grouped by step in ascending order. At each step the
// non-self values (in declaration order) join into one user message with
// a blank-line separator, then self values follow as assistant messages.
// When the column declares more than one non-self dependency, every
// non-self value is enclosed in its <tag> envelope; with exactly one, the
// value is emitted raw. A final merge pass collapses consecutive
// same-role messages, so consumers never see two turns of the same role
// in a row.
func assemble(entries []domain.Entry, wrapTags bool) []domain.Message {
	steps := make([]int, 0, len(entries))
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if !seen[e.Step] {
			seen[e.Step] = true
			steps = append(steps, e.Step)
		}
	}
	sort.Ints(steps)

	var out []domain.Message
	for _, s := range steps {
		var userParts []string
		var selfParts []string
		for _, e := range entries {
			if e.Step != s {
				continue
			}
			if e.Self {
				selfParts = append(selfParts, e.Value)
				continue
			}
			v := e.Value
			if wrapTags && e.Tag != "" {
				v = "<" + e.Tag + ">\n" + v + "\n</" + e.Tag + ">"
			}
			userParts = append(userParts, v)
		}

		if len(userParts) > 0 {
			out = append(out, domain.Message{
				Role:    domain.RoleUser,
				Content: strings.Join(userParts, "\n\n"),
			})
		}
		for _, v := range selfParts {
			out = append(out, domain.Message{Role: domain.RoleAssistant, Content: v})
		}
	}

	return mergeAdjacent(out)
}

// mergeAdjacent collapses consecutive same-role messages, joining their
// contents with a blank line. The result strictly alternates roles.
func mergeAdjacent(msgs []domain.Message) []domain.Message {
	if len(msgs) < 2 {
		return msgs
	}
	out := msgs[:1]
	for _, m := range msgs[1:] {
		last := &out[len(out)-1]
		if m.Role == last.Role {
			last.Content += "\n\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	return out
}
