package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/adaptstm/stm"
)

// commonFlags are shared across every scenario subcommand.
type commonFlags struct {
	workers     int
	iterations  int
	maxInflight int
	statsOut    string
	backoff     bool
}

func addCommonFlags(cmd *cobra.Command, f *commonFlags) {
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 8, "number of concurrent workers")
	cmd.Flags().IntVarP(&f.iterations, "iterations", "n", 10000, "transactions per worker")
	cmd.Flags().IntVar(&f.maxInflight, "max-inflight", 0, "cap on concurrently running workers (0 = unbounded)")
	cmd.Flags().StringVar(&f.statsOut, "stats-out", "", "write end-of-run counters to this file as msgpack")
	cmd.Flags().BoolVar(&f.backoff, "exponential-backoff", false, "scale the conflict manager's yield budget by retry count")
}

// runWorkers spins up f.workers goroutines, each calling body iterations
// times, using an errgroup so the first worker error aborts the rest and
// a semaphore to cap live workers when requested.
func runWorkers(ctx context.Context, f commonFlags, body func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	var sem *semaphore.Weighted
	if f.maxInflight > 0 {
		sem = semaphore.NewWeighted(int64(f.maxInflight))
	}
	for i := 0; i < f.workers; i++ {
		g.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
			}
			for j := 0; j < f.iterations; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := body(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// reportStats prints rt's counters and, if requested, serializes them as
// msgpack to f.statsOut.
func reportStats(rt *stm.Runtime, f commonFlags) error {
	stats := rt.Stats()
	fmt.Printf("commits=%d aborts=%d retries=%d deadlocks=%d hash_rotations=%d hash_resizes=%d\n",
		stats.Commits, stats.Aborts, stats.Retries, stats.DeadlocksDetected, stats.HashRotations, stats.HashResizes)

	if f.statsOut == "" {
		return nil
	}
	buf, err := msgpack.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := os.WriteFile(f.statsOut, buf, 0o644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}
