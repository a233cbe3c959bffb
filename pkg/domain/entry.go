package domain

// Entry is one resolved (step, value) pair contributed by a dependency.
// Role and Tag are carried from the declaring dependency; Wrapped entries
// are enclosed in a <tag> envelope during assembly.
type Entry struct {
	Step  int
	Value string
	Role  Role
	Tag   string
	Self  bool
}

// Transform optionally rewrites the resolved entries of a column before
// message assembly. It runs once per computed step and may append synthetic
// entries (e.g. a trailing reminder at the current step). The returned
// slice replaces the input.
type Transform func(step int, entries []Entry) []Entry
