/*
Package lattice is an incremental dataflow engine for step-indexed derived
sequences ("columns"), built for conversational and analytical pipelines.

A flow is a DAG of columns sharing one step counter: source columns are fed
from outside, derived columns are computed from a declared list of
dependencies on other columns (or their own history). New source steps
trigger only the minimal recomputation needed; every computed value is
cached by step until explicitly invalidated.

# Key Features

  - Incremental scheduling: a run computes exactly the steps each column
    is missing, in increasing step order.
  - Topological leveling: columns with no current-step ordering dependency
    share a level and compute concurrently.
  - Streaming events: runs emit start/delta/value events, consumable as a
    live stream or silently awaited.
  - Live graph surgery: columns can be added, removed, or replaced, with
    cascading cache invalidation downstream of a replacement.
  - Pluggable storage: per-column append-only logs in memory, on disk, in
    Redis, or in SQLite.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/lattice"
		"github.com/aretw0/lattice/pkg/domain"
		"github.com/aretw0/lattice/pkg/ports"
	)

	func main() {
		upper := ports.CompleterFunc(func(ctx context.Context, msgs []domain.Message) (string, error) {
			return "you said: " + msgs[len(msgs)-1].Content, nil
		})

		eng, err := lattice.New([]lattice.DerivedSpec{{
			Name:      "assistant",
			Completer: upper,
			Dependencies: []domain.Dependency{
				domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityAll),
				domain.FromSelf(domain.CardinalityAll),
			},
		}})
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		if err := eng.Push(ctx, "user", "Hello"); err != nil {
			log.Fatal(err)
		}

		for ev := range eng.Run(ctx).Events() {
			if ev.Kind == domain.EventValue {
				fmt.Println(ev.Column, ev.Value)
			}
		}
	}
*/
package lattice
