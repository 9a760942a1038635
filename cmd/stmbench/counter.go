package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adaptstm/stm"
)

// newCounterCommand is the scenario behind the teacher's own TestSum: many
// workers racing to increment a single shared counter, the maximum
// contention one shared word can produce.
func newCounterCommand() *cobra.Command {
	f := commonFlags{}
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Hammer a single shared counter from many workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCounter(cmd.Context(), f)
		},
	}
	addCommonFlags(cmd, &f)
	return cmd
}

func runCounter(ctx context.Context, f commonFlags) error {
	rt := stm.New(stm.WithExponentialBackoff(f.backoff))
	defer rt.Shutdown()

	counter := stm.NewVar(0)
	err := runWorkers(ctx, f, func(ctx context.Context) error {
		return stm.Atomically(rt, func(tx *stm.Tx) error {
			v, err := tx.Load(counter)
			if err != nil {
				return err
			}
			return tx.Store(counter, v+1)
		})
	})
	if err != nil {
		return err
	}

	want := uint64(f.workers) * uint64(f.iterations)
	if err := stm.Atomically(rt, func(tx *stm.Tx) error {
		got, err := tx.Load(counter)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("counter mismatch: want %d, got %d", want, got)
		}
		return nil
	}); err != nil {
		return err
	}

	return reportStats(rt, f)
}
