/*
Package ports defines the boundary contracts between the Lattice core and
its collaborators (Ports & Adapters / Hexagonal Architecture).

The engine consumes these interfaces; concrete implementations live under
pkg/adapters. The two contracts are storage (Log, LogProvider: one
append-only, step-indexed log per column) and compute (Completer,
StreamCompleter: the opaque external capability that turns an assembled
conversation into a value).
*/
package ports
