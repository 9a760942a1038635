// Command stmbench drives the adaptstm library under contention with a
// handful of STAMP-style workloads and reports the resulting commit,
// retry, and adaptivity counters.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "stmbench",
		Short:   "Contention benchmarks for the adaptstm library",
		Version: version,
	}

	rootCmd.AddCommand(
		newCounterCommand(),
		newBankCommand(),
		newHeapCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
