package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/adaptstm/stm"
)

// newBankCommand is the scenario behind the teacher's own TestBankTransfer:
// random pairwise transfers among N accounts, conserving the total balance
// and exercising the write-skew-prone multi-address read/write pattern
// spec.md §8 calls out.
func newBankCommand() *cobra.Command {
	f := commonFlags{}
	var accounts int
	var balance int
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Random pairwise transfers among N accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBank(cmd.Context(), f, accounts, uint64(balance))
		},
	}
	addCommonFlags(cmd, &f)
	cmd.Flags().IntVar(&accounts, "accounts", 16, "number of accounts")
	cmd.Flags().IntVar(&balance, "balance", 1000, "initial balance per account")
	return cmd
}

func runBank(ctx context.Context, f commonFlags, numAccounts int, balance uint64) error {
	rt := stm.New(stm.WithExponentialBackoff(f.backoff))
	defer rt.Shutdown()

	accounts := make([]*stm.Var, numAccounts)
	for i := range accounts {
		accounts[i] = stm.NewVar(balance)
	}

	err := runWorkers(ctx, f, func(ctx context.Context) error {
		from := rand.Intn(numAccounts)
		to := rand.Intn(numAccounts)
		if from == to {
			return nil
		}
		return stm.Atomically(rt, func(tx *stm.Tx) error {
			vf, err := tx.Load(accounts[from])
			if err != nil {
				return err
			}
			if vf == 0 {
				return nil
			}
			amount := uint64(rand.Int63n(int64(vf)))
			vt, err := tx.Load(accounts[to])
			if err != nil {
				return err
			}
			if err := tx.Store(accounts[from], vf-amount); err != nil {
				return err
			}
			return tx.Store(accounts[to], vt+amount)
		})
	})
	if err != nil {
		return err
	}

	want := balance * uint64(numAccounts)
	if err := stm.Atomically(rt, func(tx *stm.Tx) error {
		var total uint64
		for _, a := range accounts {
			v, err := tx.Load(a)
			if err != nil {
				return err
			}
			total += v
		}
		if total != want {
			return fmt.Errorf("balance not conserved: want %d, got %d", want, total)
		}
		return nil
	}); err != nil {
		return err
	}

	return reportStats(rt, f)
}
