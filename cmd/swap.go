package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solpulse-swap/config"
	"solpulse-swap/pkg/catalog"
	"solpulse-swap/pkg/jupiter"
	"solpulse-swap/pkg/parser"
	"solpulse-swap/pkg/session"
	"solpulse-swap/pkg/txlog"
	"solpulse-swap/pkg/types"
	"solpulse-swap/pkg/wallet"
)

var (
	slippageBps int
	noConfirm   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <from-token> to <to-token>",
	Short: "Swap one SPL token for another",
	Long: `Swap tokens on Solana through the Jupiter v6 aggregator.

Without a configured wallet key the command runs in estimate-only mode:
it shows the approximate output from last-known prices and exits. With
SOLPULSE_WALLET_KEY set, it fetches a firm route, asks for
confirmation, signs and submits the swap.

Examples:
  solpulse swap 1 SOL to USDC
  solpulse swap 0.5 SOL to BONK --slippage-bps 50
  solpulse swap 100 USDC to SOL --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().IntVar(&slippageBps, "slippage-bps", session.DefaultSlippageBps, "Slippage tolerance in basis points")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

// noWallet is the wallet seen by estimate-only sessions.
type noWallet struct{}

func (noWallet) IsConnected() bool { return false }
func (noWallet) PublicKey() string { return "" }
func (noWallet) SignTransaction(_ *solana.Transaction) (*solana.Transaction, error) {
	return nil, types.ErrWalletDisconnected
}
func (noWallet) SendTransaction(_ context.Context, _ *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, types.ErrWalletDisconnected
}
func (noWallet) ConfirmTransaction(_ context.Context, _ solana.Signature) error {
	return types.ErrWalletDisconnected
}

func runSwap(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	swapReq, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	logger := newLogger(verbose)
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()
	tokens := loadCatalog(ctx, cfg, nil, logger, jsonOutput)

	fromToken, ok := catalog.FindBySymbol(tokens, swapReq.FromSymbol)
	if !ok {
		printError(fmt.Errorf("unknown token %s (try: solpulse tokens)", swapReq.FromSymbol))
		os.Exit(1)
	}
	toToken, ok := catalog.FindBySymbol(tokens, swapReq.ToSymbol)
	if !ok {
		printError(fmt.Errorf("unknown token %s (try: solpulse tokens)", swapReq.ToSymbol))
		os.Exit(1)
	}

	// Wallet is optional: without a key the session stays in
	// estimate-only mode and nothing can be executed.
	var ctrlWallet session.Wallet = noWallet{}
	var adapter *wallet.Adapter
	if cfg.WalletKey != "" {
		ext, err := wallet.NewKeypairExtension(cfg.RPCURL, cfg.WalletKey)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		adapter = wallet.NewAdapter(ext, logger)
		defer adapter.Close()
		if err := adapter.Connect(ctx); err != nil {
			printError(err)
			os.Exit(1)
		}
		ctrlWallet = adapter
	}

	apiClient := jupiter.NewClient(cfg.QuoteAPI, cfg.SwapAPI, cfg.FeeBps, cfg.FeeAccount, logger)
	store := txlog.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, logger)

	ctrl := session.NewController(apiClient, apiClient, ctrlWallet, store, logger)
	defer ctrl.Close()
	if adapter != nil {
		adapter.OnReset(ctrl.HandleWalletDisconnect)
	}

	ctrl.SetFromToken(&fromToken)
	ctrl.SetToToken(&toToken)
	ctrl.SetSlippageBps(slippageBps)
	ctrl.SetFromAmount(swapReq.Amount)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}
	state, phase := waitForQuote(ctrl, 30*time.Second)
	if !jsonOutput {
		s.Stop()
	}

	if phase == session.PhaseError {
		printError(state.Err)
		os.Exit(1)
	}
	if phase != session.PhaseQuoted {
		printError(fmt.Errorf("timed out waiting for a quote"))
		os.Exit(1)
	}

	if jsonOutput {
		printQuoteJSON(state, cfg)
	} else {
		displayQuote(state, cfg)
	}

	if state.Route == nil {
		// Estimate-only: no wallet, nothing to execute.
		if !jsonOutput {
			color.Yellow("Estimate only. Set SOLPULSE_WALLET_KEY to execute swaps.\n")
		}
		return
	}

	if adapter != nil && !jsonOutput {
		displayBalance(ctx, cfg, fromToken, adapter, logger, swapReq.Amount)
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			return
		}
	}
	if jsonOutput && !noConfirm {
		// JSON mode never prompts; executing needs an explicit --yes.
		return
	}

	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}
	sig, err := ctrl.ExecuteSwap(ctx)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		finalState, _ := ctrl.Snapshot()
		if finalState.NeedsReconnect() {
			printError(fmt.Errorf("wallet disconnected during the swap: %v (reconnect and try again)", err))
		} else {
			printError(err)
		}
		os.Exit(1)
	}

	if jsonOutput {
		out, _ := json.MarshalIndent(map[string]string{
			"status":    "settled",
			"signature": sig.String(),
		}, "", "  ")
		fmt.Println(string(out))
		return
	}

	printSuccess(color.GreenString("Swap settled on chain."))
	fmt.Printf("  Signature: %s\n", color.CyanString(sig.String()))
	fmt.Printf("  Explorer:  %s\n\n", explorerURL(cfg, sig.String()))
}

// loadCatalog fetches the token list, falling back to the hardcoded
// set when the registry is unreachable so the session stays usable.
func loadCatalog(ctx context.Context, cfg *config.Config, balances catalog.BalanceSource, logger *zap.Logger, quiet bool) []types.Token {
	c := catalog.New(cfg.TokenAPI, balances, logger)
	tokens, err := c.Load(ctx)
	if err != nil {
		if !quiet {
			color.Yellow("\nToken registry unreachable, using the built-in token set.")
		}
		logger.Warn("token catalog load failed", zap.Error(err))
		return catalog.Fallback()
	}
	return tokens
}

// waitForQuote polls the controller until it settles in a terminal
// quoting phase or the deadline passes.
func waitForQuote(ctrl *session.Controller, timeout time.Duration) (session.SwapState, session.Phase) {
	deadline := time.Now().Add(timeout)
	for {
		state, phase := ctrl.Snapshot()
		if phase == session.PhaseQuoted || phase == session.PhaseError {
			return state, phase
		}
		if time.Now().After(deadline) {
			return state, phase
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func displayBalance(ctx context.Context, cfg *config.Config, fromToken types.Token, adapter *wallet.Adapter, logger *zap.Logger, amount string) {
	source := catalog.NewRPCBalanceSource(cfg.RPCURL)
	c := catalog.New(cfg.TokenAPI, source, logger)
	refreshed := c.RefreshBalances(ctx, []types.Token{fromToken}, adapter.PublicKey())
	balance := refreshed[0].Balance

	fmt.Printf("  Wallet Balance:    %s %s\n", balance.String(), fromToken.Symbol)
	if in, err := decimal.NewFromString(amount); err == nil && balance.LessThan(in) {
		color.Yellow("  Warning: balance is below the swap amount.")
	}
	fmt.Println()
}

func displayQuote(state session.SwapState, cfg *config.Config) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", state.FromAmount, color.YellowString(state.FromToken.Symbol))
	fmt.Printf("  To:                ~%s %s\n", state.ToAmount, color.YellowString(state.ToToken.Symbol))

	if rate, ok := exchangeRate(state); ok {
		fmt.Printf("  Rate:              1 %s = %s %s\n", state.FromToken.Symbol, rate, state.ToToken.Symbol)
	}
	fmt.Printf("  Slippage:          %.2f%%\n", float64(state.SlippageBps)/100)
	fmt.Printf("  Protocol Fee:      %.2f%%\n", float64(cfg.FeeBps)/100)

	if state.Route != nil {
		if min, err := state.ToToken.FromSmallestUnit(state.Route.OtherAmountThreshold); err == nil {
			fmt.Printf("  Minimum Received:  %s %s\n", min.String(), state.ToToken.Symbol)
		}
		if state.Route.PriceImpactPct != "" {
			fmt.Printf("  Price Impact:      %s%%\n", state.Route.PriceImpactPct)
		}
		if legs := routeLabels(state.Route.RoutePlan); legs != "" {
			fmt.Printf("  Route:             %s\n", legs)
		}
	} else {
		fmt.Printf("  Source:            local estimate (last-known prices)\n")
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func printQuoteJSON(state session.SwapState, cfg *config.Config) {
	output := map[string]interface{}{
		"from_token":   state.FromToken.Symbol,
		"from_amount":  state.FromAmount,
		"to_token":     state.ToToken.Symbol,
		"to_amount":    state.ToAmount,
		"slippage_bps": state.SlippageBps,
		"fee_bps":      cfg.FeeBps,
		"firm":         state.Route != nil,
	}
	if state.Route != nil {
		output["route"] = state.Route
	}
	jsonData, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonData))
}

func exchangeRate(state session.SwapState) (string, bool) {
	in, err := decimal.NewFromString(state.FromAmount)
	if err != nil || !in.IsPositive() {
		return "", false
	}
	out, err := decimal.NewFromString(state.ToAmount)
	if err != nil {
		return "", false
	}
	return out.Div(in).Round(6).String(), true
}

func routeLabels(plan []jupiter.RoutePlanStep) string {
	labels := make([]string, 0, len(plan))
	for _, step := range plan {
		if step.SwapInfo.Label != "" {
			labels = append(labels, step.SwapInfo.Label)
		}
	}
	return strings.Join(labels, " -> ")
}

func explorerURL(cfg *config.Config, signature string) string {
	if cfg.Network == "devnet" {
		return fmt.Sprintf("https://solscan.io/tx/%s?cluster=devnet", signature)
	}
	return fmt.Sprintf("https://solscan.io/tx/%s", signature)
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
