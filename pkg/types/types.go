// Package types holds the domain types shared across the swap packages.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Token describes a tradable token from the registry. Everything but
// Balance is fixed once the catalog loads it; Balance is refreshed
// independently after a wallet connects.
type Token struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Address  string          `json:"address"` // on-chain mint
	Decimals int             `json:"decimals"`
	LogoURI  string          `json:"logoURI,omitempty"`
	Price    decimal.Decimal `json:"price"`   // last-known price in USD, zero when unknown
	Balance  decimal.Decimal `json:"balance"` // wallet balance, zero when unknown
}

// ToSmallestUnit converts a user-facing amount to the token's smallest
// unit (lamports-like integer string) for the quote API.
func (t Token) ToSmallestUnit(amount decimal.Decimal) string {
	return amount.Shift(int32(t.Decimals)).Truncate(0).String()
}

// FromSmallestUnit converts a smallest-unit integer string back to a
// user-facing amount.
func (t Token) FromSmallestUnit(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d.Shift(int32(-t.Decimals)), nil
}

// HasPrice reports whether a last-known price is available for local
// estimation.
func (t Token) HasPrice() bool {
	return t.Price.IsPositive()
}

// SwapRequest is a parsed swap command: amount of FromSymbol to trade
// into ToSymbol.
type SwapRequest struct {
	Amount     string
	FromSymbol string
	ToSymbol   string
}
