/*
Package domain contains the core domain models for the Lattice engine.

It defines the fundamental entities of the dataflow graph: Dependencies
(what a derived column reads, and how), Messages (the role-tagged
conversation handed to a compute function), resolved context Entries, and
the run Event stream. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Dependency: a (target, temporal mode, cardinality mode) reference
    declared by a derived column, with a sentinel form for self-references.
  - Entry: one resolved (step, value) pair produced by dependency resolution.
  - Message: a role-tagged text payload assembled from resolved entries.
  - Event: one element of the stream a run emits (start, delta, value).
*/
package domain
