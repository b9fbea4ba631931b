// Package catalog loads and normalizes the tradable token list from the
// token registry, and refreshes on-chain balances for a connected
// wallet.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solpulse-swap/pkg/types"
)

// PopularSymbols is the fixed priority order pinned to the front of the
// catalog; all other tokens sort alphabetically behind them.
var PopularSymbols = []string{"SOL", "USDC", "BONK", "JUP", "ORCA", "RAY"}

// knownPrices is the last-known USD price table used for local estimates
// when no authoritative quote is available.
var knownPrices = map[string]decimal.Decimal{
	"SOL":  decimal.RequireFromString("169.42"),
	"USDC": decimal.RequireFromString("1.0"),
	"BONK": decimal.RequireFromString("0.000032"),
	"JUP":  decimal.RequireFromString("1.25"),
	"RAY":  decimal.RequireFromString("0.35"),
	"ORCA": decimal.RequireFromString("0.55"),
}

// registryToken matches the token registry's wire format.
type registryToken struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// BalanceSource reads on-chain balances. The solana-go RPC
// implementation lives in balances.go; tests substitute a fake.
type BalanceSource interface {
	// SOLBalance returns the owner's native balance in SOL.
	SOLBalance(ctx context.Context, owner string) (decimal.Decimal, error)
	// TokenBalance returns the owner's balance of the given mint, in
	// user-facing units.
	TokenBalance(ctx context.Context, owner, mint string, decimals int) (decimal.Decimal, error)
}

// Catalog fetches and caches nothing; every Load is a fresh fetch and
// the returned slice wholesale replaces the previous one.
type Catalog struct {
	registryURL string
	httpClient  *http.Client
	balances    BalanceSource
	logger      *zap.Logger
}

// New creates a catalog backed by the given registry URL. balances may
// be nil when no wallet features are needed.
func New(registryURL string, balances BalanceSource, logger *zap.Logger) *Catalog {
	return &Catalog{
		registryURL: registryURL,
		httpClient:  http.DefaultClient,
		balances:    balances,
		logger:      logger,
	}
}

// Load fetches the token list, drops entries missing a symbol or
// address, deduplicates by address, attaches known prices, and sorts
// popular symbols to the front. Failures wrap types.ErrFetch; callers
// fall back to Fallback() so the session stays usable.
func (c *Catalog) Load(ctx context.Context) ([]types.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.registryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFetch, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: registry returned status code %d", types.ErrFetch, resp.StatusCode)
	}

	var raw []registryToken
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: malformed registry body: %v", types.ErrFetch, err)
	}

	seen := make(map[string]bool, len(raw))
	tokens := make([]types.Token, 0, len(raw))
	for _, rt := range raw {
		if rt.Symbol == "" || rt.Address == "" {
			continue
		}
		if seen[rt.Address] {
			continue
		}
		seen[rt.Address] = true

		name := rt.Name
		if name == "" {
			name = rt.Symbol
		}
		tokens = append(tokens, types.Token{
			Symbol:   rt.Symbol,
			Name:     name,
			Address:  rt.Address,
			Decimals: rt.Decimals,
			LogoURI:  rt.LogoURI,
			Price:    knownPrices[rt.Symbol],
		})
	}

	sortTokens(tokens)

	c.logger.Info("token catalog loaded", zap.Int("tokens", len(tokens)))
	return tokens, nil
}

// sortTokens pins PopularSymbols to the front in their fixed order and
// sorts everything else alphabetically by symbol.
func sortTokens(tokens []types.Token) {
	rank := make(map[string]int, len(PopularSymbols))
	for i, s := range PopularSymbols {
		rank[s] = i
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		ri, iOK := rank[tokens[i].Symbol]
		rj, jOK := rank[tokens[j].Symbol]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return tokens[i].Symbol < tokens[j].Symbol
		}
	})
}

// Fallback returns the small hardcoded set used when the registry is
// unreachable.
func Fallback() []types.Token {
	return []types.Token{
		{
			Symbol:   "SOL",
			Name:     "Solana",
			Address:  "So11111111111111111111111111111111111111112",
			Decimals: 9,
			LogoURI:  "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/So11111111111111111111111111111111111111112/logo.png",
			Price:    knownPrices["SOL"],
		},
		{
			Symbol:   "USDC",
			Name:     "USD Coin",
			Address:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			Decimals: 6,
			LogoURI:  "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v/logo.png",
			Price:    knownPrices["USDC"],
		},
		{
			Symbol:   "BONK",
			Name:     "Bonk",
			Address:  "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
			Decimals: 5,
			LogoURI:  "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263/logo.png",
			Price:    knownPrices["BONK"],
		},
	}
}

// RefreshBalances returns a copy of tokens with Balance populated for
// the given owner. A failure for any single token never aborts the
// others: that token keeps a zero balance and the error is logged.
func (c *Catalog) RefreshBalances(ctx context.Context, tokens []types.Token, owner string) []types.Token {
	out := make([]types.Token, len(tokens))
	copy(out, tokens)

	if c.balances == nil || owner == "" {
		return out
	}

	for i := range out {
		var (
			balance decimal.Decimal
			err     error
		)
		if out[i].Symbol == "SOL" {
			balance, err = c.balances.SOLBalance(ctx, owner)
		} else {
			balance, err = c.balances.TokenBalance(ctx, owner, out[i].Address, out[i].Decimals)
		}
		if err != nil {
			c.logger.Warn("balance refresh failed",
				zap.String("symbol", out[i].Symbol),
				zap.Error(err))
			continue
		}
		out[i].Balance = balance
	}

	return out
}

// Search filters tokens by a case-insensitive match on symbol, name or
// address. An empty query returns only the popular set, in priority
// order, mirroring the default selector view.
func Search(tokens []types.Token, query string) []types.Token {
	if query == "" {
		popular := make([]types.Token, 0, len(PopularSymbols))
		for _, sym := range PopularSymbols {
			for _, t := range tokens {
				if t.Symbol == sym {
					popular = append(popular, t)
					break
				}
			}
		}
		return popular
	}

	q := strings.ToLower(query)
	matched := make([]types.Token, 0)
	for _, t := range tokens {
		if strings.Contains(strings.ToLower(t.Symbol), q) ||
			strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Address), q) {
			matched = append(matched, t)
		}
	}
	return matched
}

// FindBySymbol returns the first token with the given symbol
// (case-insensitive) or false when absent.
func FindBySymbol(tokens []types.Token, symbol string) (types.Token, bool) {
	for _, t := range tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return types.Token{}, false
}
