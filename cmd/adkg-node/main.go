// Command adkg-node runs a local asynchronous distributed key generation
// instance: n parties, each in its own goroutine, communicating over an
// in-memory bus, tolerating t Byzantine faults. It is the tutorial/test
// driver entrypoint for the protocol implemented under internal/, grounded
// on original_source/apps/tutorial/adkg-tutorial.py's ProcessProgramRunner
// harness, collapsed to a single cobra command since one process already
// hosts every party.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/adkg/internal/driver"
	"github.com/luxfi/adkg/pkg/party"
)

var (
	flagN       int
	flagT       int
	flagTimeout time.Duration
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "adkg-node",
	Short: "Run a local asynchronous distributed key generation instance",
	Long: `adkg-node runs n parties of the ADKG protocol against each other in a
single process over an in-memory transport, tolerating t Byzantine faults
(t < n/3). Every honest party's run produces the same group public key and
a share of the corresponding secret key.`,
	RunE: runADKG,
}

func init() {
	rootCmd.Flags().IntVar(&flagN, "n", 4, "total number of parties")
	rootCmd.Flags().IntVar(&flagT, "t", 1, "maximum number of Byzantine parties tolerated (t < n/3)")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "abort the run if it has not finished after this long")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "print only the final public key")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "adkg-node:", err)
		os.Exit(1)
	}
}

func runADKG(cmd *cobra.Command, args []string) error {
	if flagN <= 0 {
		return fmt.Errorf("--n must be positive")
	}
	if flagT < 0 || 3*flagT >= flagN {
		return fmt.Errorf("--t must satisfy 0 <= t < n/3 (got n=%d t=%d)", flagN, flagT)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, flagTimeout)
	defer cancelTimeout()

	if !flagQuiet {
		fmt.Fprintf(os.Stdout, "running ADKG with n=%d t=%d (timeout %s)\n", flagN, flagT, flagTimeout)
	}

	results := driver.Run(ctx, flagN, flagT)

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

	var failures int
	var pk string
	for _, r := range results {
		if r.Err != nil {
			failures++
			if !flagQuiet {
				fmt.Fprintf(os.Stdout, "party %d: FAILED: %v\n", r.ID, r.Err)
			}
			continue
		}
		pkBytes, err := r.Output.PublicKey.MarshalBinary()
		if err != nil {
			return fmt.Errorf("party %d: marshal public key: %w", r.ID, err)
		}
		pkHex := hex.EncodeToString(pkBytes)
		if pk == "" {
			pk = pkHex
		} else if pk != pkHex {
			fmt.Fprintf(os.Stderr, "party %d: public key disagreement: got %s, want %s\n", r.ID, pkHex, pk)
		}
		if !flagQuiet {
			shareBytes, err := r.Output.SecretShare.MarshalBinary()
			if err != nil {
				return fmt.Errorf("party %d: marshal secret share: %w", r.ID, err)
			}
			fmt.Fprintf(os.Stdout, "party %d: mks=%s share=%s\n", r.ID, formatMKS(r.Output.MKS), hex.EncodeToString(shareBytes))
		}
	}

	if pk == "" {
		return fmt.Errorf("no party completed the run successfully")
	}
	fmt.Fprintf(os.Stdout, "public key: %s\n", pk)
	if failures > 0 {
		fmt.Fprintf(os.Stdout, "%d of %d parties failed\n", failures, flagN)
	}
	return nil
}

func formatMKS(ids []party.ID) string {
	s := ""
	for i, id := range ids {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", id)
	}
	return s
}
