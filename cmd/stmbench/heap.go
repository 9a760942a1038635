package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/adaptstm/stm"
)

// newHeapCommand is the scenario behind the teacher's own TestHeap:
// concurrent sift-up insertion into a shared binary heap, exercising a
// transaction that touches a chain of addresses whose length varies with
// the random value inserted.
func newHeapCommand() *cobra.Command {
	f := commonFlags{}
	var size int
	cmd := &cobra.Command{
		Use:   "heap",
		Short: "Concurrent sift-up insertion into a shared binary heap",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeap(cmd.Context(), f, size)
		},
	}
	addCommonFlags(cmd, &f)
	cmd.Flags().IntVar(&size, "size", 1024, "heap capacity")
	return cmd
}

func runHeap(ctx context.Context, f commonFlags, size int) error {
	rt := stm.New(stm.WithExponentialBackoff(f.backoff))
	defer rt.Shutdown()

	heap := make([]*stm.Var, size)
	for i := range heap {
		heap[i] = stm.NewVar(0)
	}
	end := stm.NewVar(0)

	insert := func(tx *stm.Tx, x uint64) error {
		e, err := tx.Load(end)
		if err != nil {
			return err
		}
		if e >= uint64(size) {
			return nil
		}
		curr, parent := e, e/2
		for curr != 0 {
			pv, err := tx.Load(heap[parent])
			if err != nil {
				return err
			}
			if pv <= x {
				break
			}
			if err := tx.Store(heap[curr], pv); err != nil {
				return err
			}
			curr = parent
			parent /= 2
		}
		if err := tx.Store(heap[curr], x); err != nil {
			return err
		}
		return tx.Store(end, e+1)
	}

	err := runWorkers(ctx, f, func(ctx context.Context) error {
		x := uint64(rand.Intn(1 << 20))
		return stm.Atomically(rt, func(tx *stm.Tx) error {
			return insert(tx, x)
		})
	})
	if err != nil {
		return err
	}

	if err := stm.Atomically(rt, func(tx *stm.Tx) error {
		e, err := tx.Load(end)
		if err != nil {
			return err
		}
		for i := uint64(1); i < e; i++ {
			v, err := tx.Load(heap[i])
			if err != nil {
				return err
			}
			pv, err := tx.Load(heap[i/2])
			if err != nil {
				return err
			}
			if pv > v {
				return fmt.Errorf("heap invariant violated at index %d", i)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return reportStats(rt, f)
}
