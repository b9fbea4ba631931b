package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "solpulse",
	Short: "A CLI for swapping Solana tokens via the Jupiter aggregator",
	Long: `solpulse is a command-line tool for trading SPL tokens on Solana.
It quotes routes through the Jupiter v6 aggregator, signs with a local
keypair, and submits directly to the cluster.

Examples:
  solpulse swap 1 SOL to USDC
  solpulse tokens --search bonk
  solpulse history
  solpulse status <signature>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// newLogger returns the structured logger backing the packages. It is
// silent unless --verbose is set; the command output itself goes
// through plain printing.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
