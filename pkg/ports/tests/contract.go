package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/lattice/pkg/ports"
)

// LogContractTest is a reusable suite verifying that an adapter complies
// with the ports.Log contract. Callers pass a factory so each subtest
// gets a fresh, empty log.
func LogContractTest(t *testing.T, open func(t *testing.T, name string) ports.Log) {
	t.Helper()
	ctx := context.Background()

	t.Run("EmptyLog", func(t *testing.T) {
		log := open(t, "empty")

		n, err := log.Len(ctx)
		if err != nil {
			t.Fatalf("Len failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected empty log, got length %d", n)
		}

		_, ok, err := log.Get(ctx, 0)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("expected absence for step 0 of empty log")
		}
	})

	t.Run("PushAppendsSequentially", func(t *testing.T) {
		log := open(t, "sequential")

		for i := 0; i < 5; i++ {
			if err := log.Push(ctx, fmt.Sprintf("value-%d", i)); err != nil {
				t.Fatalf("Push %d failed: %v", i, err)
			}
		}

		n, err := log.Len(ctx)
		if err != nil {
			t.Fatalf("Len failed: %v", err)
		}
		if n != 5 {
			t.Fatalf("expected length 5, got %d", n)
		}

		for i := 0; i < 5; i++ {
			got, ok, err := log.Get(ctx, i)
			if err != nil {
				t.Fatalf("Get %d failed: %v", i, err)
			}
			if !ok {
				t.Fatalf("expected value at step %d", i)
			}
			if want := fmt.Sprintf("value-%d", i); got != want {
				t.Errorf("step %d: got %q, want %q", i, got, want)
			}
		}
	})

	t.Run("GetPastLengthIsAbsent", func(t *testing.T) {
		log := open(t, "bounds")
		if err := log.Push(ctx, "only"); err != nil {
			t.Fatalf("Push failed: %v", err)
		}

		_, ok, err := log.Get(ctx, 1)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("expected absence past the end of the log")
		}
	})

	t.Run("ClearResets", func(t *testing.T) {
		log := open(t, "clear")
		if err := log.Push(ctx, "a"); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
		if err := log.Push(ctx, "b"); err != nil {
			t.Fatalf("Push failed: %v", err)
		}

		if err := log.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}

		n, err := log.Len(ctx)
		if err != nil {
			t.Fatalf("Len failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected length 0 after Clear, got %d", n)
		}

		// A cleared log accepts new values from index 0 again.
		if err := log.Push(ctx, "fresh"); err != nil {
			t.Fatalf("Push after Clear failed: %v", err)
		}
		got, ok, err := log.Get(ctx, 0)
		if err != nil || !ok || got != "fresh" {
			t.Errorf("expected %q at step 0 after Clear, got %q (ok=%v, err=%v)", "fresh", got, ok, err)
		}
	})
}
