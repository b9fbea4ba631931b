package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"solpulse-swap/config"
	"solpulse-swap/pkg/txlog"
)

var historyWallet string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past swaps for a wallet",
	Long: `Show the recorded swap history for a wallet, newest first.

History requires the datastore credentials (SOLPULSE_SUPABASE_URL and
SOLPULSE_SUPABASE_ANON_KEY). Without them the feature is unavailable,
which is not an error. The wallet defaults to the configured signing
key; use --wallet to inspect another address.

Examples:
  solpulse history
  solpulse history --wallet 7S3P4HxJpyyigGzodYwHtCxZyUQe9JiBMHyRWXArAaKv`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyWallet, "wallet", "", "Wallet address to list history for")
}

func runHistory(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	logger := newLogger(verbose)
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	owner := historyWallet
	if owner == "" && cfg.WalletKey != "" {
		key, err := solana.PrivateKeyFromBase58(cfg.WalletKey)
		if err != nil {
			printError(fmt.Errorf("invalid wallet key: %w", err))
			os.Exit(1)
		}
		owner = key.PublicKey().String()
	}
	if owner == "" {
		printError(fmt.Errorf("no wallet to show history for: set SOLPULSE_WALLET_KEY or pass --wallet"))
		os.Exit(1)
	}

	store := txlog.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, logger)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Loading transaction history..."
		s.Start()
	}

	records, err := store.List(context.Background(), owner)
	if !jsonOutput {
		s.Stop()
	}

	if errors.Is(err, txlog.ErrUnavailable) {
		// Unconfigured, not broken.
		fmt.Println("\nTransaction history is not available in this environment.")
		fmt.Println("Set SOLPULSE_SUPABASE_URL and SOLPULSE_SUPABASE_ANON_KEY to enable it.")
		fmt.Println()
		return
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayHistory(records, owner)
}

func displayHistory(records []txlog.Record, owner string) {
	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                               SWAP HISTORY")
	fmt.Println(strings.Repeat("=", 90))
	fmt.Printf("\n  Wallet: %s\n\n", color.CyanString(owner))

	if len(records) == 0 {
		fmt.Println("  No swaps recorded yet.")
		fmt.Println("\n" + strings.Repeat("=", 90) + "\n")
		return
	}

	for _, rec := range records {
		when := time.UnixMilli(rec.Timestamp).Format("2006-01-02 15:04:05")
		sig := rec.TxSignature
		if len(sig) > 20 {
			sig = sig[:8] + "..." + sig[len(sig)-8:]
		}

		fmt.Printf("  %s  %12g %-6s -> %12g %-6s  %s\n",
			color.HiBlackString(when),
			rec.FromAmount,
			color.YellowString(rec.FromToken),
			rec.ToAmount,
			color.YellowString(rec.ToToken),
			color.HiBlackString(sig))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d swaps\n\n", len(records))
}
