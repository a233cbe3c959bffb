package domain

import "errors"

// Structural configuration errors. All are detected synchronously at
// construction or mutation time and are never retried.
var (
	// ErrColumnNotFound is returned when a column name is not registered in the flow.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when two distinct columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrNoDependencies is returned when a derived column declares no dependencies.
	ErrNoDependencies = errors.New("derived column requires at least one dependency")

	// ErrSelfCurrent is returned when a self-reference uses the current
	// temporal mode, which would be circular.
	ErrSelfCurrent = errors.New("self-dependency must use previous temporal mode")

	// ErrDependencyNotFound is returned when a dependency references a
	// derived column absent from the flow.
	ErrDependencyNotFound = errors.New("dependency not found")

	// ErrCycle is returned when the current-temporal edge subgraph is not acyclic.
	ErrCycle = errors.New("cycle detected")

	// ErrHasDependents blocks removal of a column other columns still read.
	ErrHasDependents = errors.New("column has dependents")

	// ErrCannotRemoveSource blocks removal of a source column.
	ErrCannotRemoveSource = errors.New("cannot remove source column")

	// ErrCannotReplaceSource blocks replacement of a source column.
	ErrCannotReplaceSource = errors.New("cannot replace source column")

	// ErrInvalidReference is returned for a dependency with an unknown kind.
	ErrInvalidReference = errors.New("invalid dependency reference")

	// ErrInvalidWindow is returned for a window cardinality without a
	// positive trailing width.
	ErrInvalidWindow = errors.New("window cardinality requires a positive width")

	// ErrNameMismatch is returned when a replacement column carries a
	// different name than the column it replaces.
	ErrNameMismatch = errors.New("replacement column name mismatch")
)
