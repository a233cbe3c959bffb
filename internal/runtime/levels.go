package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// levelize computes the topological leveling of the derived columns.
//
// Only current-temporal, non-self edges constrain ordering: a previous
// edge reads a value that settled on an earlier step, so mutually
// referential columns (A reads B's previous step and vice versa) share a
// level and compute concurrently. A cycle can therefore only arise from
// current edges, and is reported as such.
func levelize(derived []*Derived) ([][]*Derived, error) {
	byName := make(map[string]*Derived, len(derived))
	for _, d := range derived {
		byName[d.Name()] = d
	}

	indegree := make(map[string]int, len(derived))
	downstream := make(map[string][]string, len(derived))
	for _, d := range derived {
		indegree[d.Name()] += 0
		for _, dep := range d.Dependencies() {
			if dep.Self() || dep.Temporal != domain.TemporalCurrent {
				continue
			}
			if _, ok := byName[dep.Target]; !ok {
				// Source or out-of-flow target, no ordering constraint.
				continue
			}
			indegree[d.Name()]++
			downstream[dep.Target] = append(downstream[dep.Target], d.Name())
		}
	}

	var levels [][]*Derived
	processed := 0
	remaining := make(map[string]bool, len(derived))
	for _, d := range derived {
		remaining[d.Name()] = true
	}

	for processed < len(derived) {
		// Extract every currently unconstrained column as one level,
		// preserving registration order for determinism.
		var level []*Derived
		for _, d := range derived {
			if remaining[d.Name()] && indegree[d.Name()] == 0 {
				level = append(level, d)
			}
		}
		if len(level) == 0 {
			var stuck []string
			for _, d := range derived {
				if remaining[d.Name()] {
					stuck = append(stuck, d.Name())
				}
			}
			return nil, fmt.Errorf("%w among columns: %s", domain.ErrCycle, strings.Join(stuck, ", "))
		}

		for _, d := range level {
			remaining[d.Name()] = false
			for _, next := range downstream[d.Name()] {
				indegree[next]--
			}
		}
		levels = append(levels, level)
		processed += len(level)
	}

	return levels, nil
}
