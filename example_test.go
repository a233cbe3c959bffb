package lattice_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// ExampleNew demonstrates a minimal chat flow: one source column fed by
// the user, one derived column computing a reply per step.
func ExampleNew() {
	// 1. Define the compute backend. In production this would be an LLM
	// client; here a plain function keeps the example deterministic.
	shout := ports.CompleterFunc(func(ctx context.Context, messages []domain.Message) (string, error) {
		last := messages[len(messages)-1]
		return "HEARD: " + last.Content, nil
	})

	// 2. Declare the derived column and its dependencies.
	engine, err := lattice.New([]lattice.DerivedSpec{
		{
			Name:      "assistant",
			Completer: shout,
			Dependencies: []domain.Dependency{
				domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityAll),
				domain.FromSelf(domain.CardinalityAll),
			},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	// 3. Push input and let the flow catch up.
	ctx := context.Background()
	if err := engine.Push(ctx, "user", "hello"); err != nil {
		log.Fatal(err)
	}
	if err := engine.Run(ctx).Wait(); err != nil {
		log.Fatal(err)
	}

	value, _, err := engine.Value(ctx, "assistant", 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(value)
	// Output: HEARD: hello
}

// ExampleEngine_Run demonstrates consuming the event stream of a run
// instead of awaiting it.
func ExampleEngine_Run() {
	echo := ports.CompleterFunc(func(ctx context.Context, messages []domain.Message) (string, error) {
		return "ok", nil
	})

	engine, err := lattice.New([]lattice.DerivedSpec{
		{
			Name:      "worker",
			Completer: echo,
			Dependencies: []domain.Dependency{
				domain.FromSource("jobs", domain.TemporalCurrent, domain.CardinalityLatest),
			},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	_ = engine.Push(ctx, "jobs", "job-1")
	_ = engine.Push(ctx, "jobs", "job-2")

	run := engine.Run(ctx)
	for ev := range run.Events() {
		if ev.Kind == domain.EventValue {
			fmt.Printf("%s step %d: %s\n", ev.Column, ev.Step, ev.Value)
		}
	}
	if err := run.Err(); err != nil {
		log.Fatal(err)
	}
	// Output:
	// worker step 0: ok
	// worker step 1: ok
}
