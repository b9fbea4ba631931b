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
	"github.com/spf13/cobra"

	"solpulse-swap/config"
	"solpulse-swap/pkg/catalog"
	"solpulse-swap/pkg/types"
)

var searchQuery string

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List tradable tokens",
	Long: `List tokens from the strict token registry.

Without --search, only the popular set is shown. The search matches
symbol, name and mint address.

Examples:
  solpulse tokens
  solpulse tokens --search bonk
  solpulse tokens --search EPjFWdd5`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&searchQuery, "search", "", "Filter by symbol, name or mint address")
}

func runListTokens(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	logger := newLogger(verbose)
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching token registry..."
		s.Start()
	}

	tokens := loadCatalog(context.Background(), cfg, nil, logger, jsonOutput)
	if !jsonOutput {
		s.Stop()
	}

	filtered := catalog.Search(tokens, searchQuery)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(filtered, len(tokens))
}

func displayTokens(tokens []types.Token, total int) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	if searchQuery == "" {
		color.Green("                              POPULAR TOKENS")
	} else {
		color.Green("                              MATCHING TOKENS")
	}
	fmt.Println(strings.Repeat("=", 90))
	fmt.Println()

	for _, token := range tokens {
		address := token.Address
		if len(address) > 44 {
			address = address[:41] + "..."
		}

		price := ""
		if token.HasPrice() {
			price = "$" + token.Price.String()
		}

		fmt.Printf("  %-8s  %-24s  %2d decimals  %-12s  %s\n",
			color.YellowString(token.Symbol),
			token.Name,
			token.Decimals,
			price,
			color.HiBlackString(address))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nShowing %d of %d tokens. Use --search to find more.\n\n", len(tokens), total)
}
