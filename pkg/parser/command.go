package parser

import (
	"fmt"
	"regexp"
	"strings"

	"solpulse-swap/pkg/types"
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 SOL to USDC"
//   - "1.5 SOL to BONK"
//   - "100 USDC to SOL"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	// Pattern: <amount> <from_token> TO <to_token>
	// Matches: "1 SOL TO USDC", "1.5 SOL TO BONK", "100.25 USDC TO SOL"
	pattern := regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9$]+)\s+TO\s+([A-Z0-9$]+)$`)

	matches := pattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 SOL to USDC')")
	}

	req := &types.SwapRequest{
		Amount:     matches[1],
		FromSymbol: NormalizeTokenSymbol(matches[2]),
		ToSymbol:   NormalizeTokenSymbol(matches[3]),
	}

	if req.FromSymbol == req.ToSymbol {
		return nil, fmt.Errorf("cannot swap %s to itself", req.FromSymbol)
	}

	return req, nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Handle common aliases
	aliases := map[string]string{
		"WSOL":    "SOL",
		"$WIF":    "WIF",
		"USDC.E":  "USDC",
		"JUPITER": "JUP",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
