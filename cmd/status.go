package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"solpulse-swap/config"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <signature>",
	Short: "Check the confirmation status of a swap transaction",
	Long: `Check the on-chain confirmation status of a submitted transaction.

Examples:
  solpulse status 5UfDu...signature
  solpulse status 5UfDu...signature --watch
  solpulse status 5UfDu...signature --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	sig, err := solana.SignatureFromBase58(args[0])
	if err != nil {
		printError(fmt.Errorf("invalid transaction signature: %w", err))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	client := rpc.New(cfg.RPCURL)

	if watchStatus {
		watchSignatureStatus(client, cfg, sig, jsonOutput)
	} else {
		checkSignatureStatus(client, cfg, sig, jsonOutput)
	}
}

func checkSignatureStatus(client *rpc.Client, cfg *config.Config, sig solana.Signature, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := fetchSignatureStatus(client, sig)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displaySignatureStatus(status, cfg, sig)
}

func watchSignatureStatus(client *rpc.Client, cfg *config.Config, sig solana.Signature, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(sig.String()))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplayStatus(client, cfg, sig)

	for range ticker.C {
		checkAndDisplayStatus(client, cfg, sig)
	}
}

func checkAndDisplayStatus(client *rpc.Client, cfg *config.Config, sig solana.Signature) {
	status, err := fetchSignatureStatus(client, sig)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	displaySignatureStatus(status, cfg, sig)
}

func fetchSignatureStatus(client *rpc.Client, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	out, err := client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, fmt.Errorf("transaction not found; it may have expired before landing")
	}
	return out.Value[0], nil
}

func displaySignatureStatus(status *rpc.SignatureStatusesResult, cfg *config.Config, sig solana.Signature) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Signature:     %s\n", color.CyanString(sig.String()))
	fmt.Printf("  Status:        %s\n", coloredConfirmation(status))
	fmt.Printf("  Slot:          %d\n", status.Slot)

	if status.Confirmations != nil {
		fmt.Printf("  Confirmations: %d\n", *status.Confirmations)
	} else {
		fmt.Printf("  Confirmations: finalized\n")
	}
	if status.Err != nil {
		color.Red("  Chain Error:   %v", status.Err)
	}
	fmt.Printf("  Explorer:      %s\n", explorerURL(cfg, sig.String()))

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredConfirmation(status *rpc.SignatureStatusesResult) string {
	if status.Err != nil {
		return color.RedString("FAILED")
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		return color.GreenString("FINALIZED")
	case rpc.ConfirmationStatusConfirmed:
		return color.GreenString("CONFIRMED")
	case rpc.ConfirmationStatusProcessed:
		return color.YellowString("PROCESSED")
	default:
		return string(status.ConfirmationStatus)
	}
}
