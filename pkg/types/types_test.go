package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitConversion(t *testing.T) {
	sol := Token{Symbol: "SOL", Decimals: 9}

	assert.Equal(t, "1000000000", sol.ToSmallestUnit(decimal.RequireFromString("1")))
	assert.Equal(t, "1500000000", sol.ToSmallestUnit(decimal.RequireFromString("1.5")))
	// Sub-lamport precision is truncated, never rounded up.
	assert.Equal(t, "1", sol.ToSmallestUnit(decimal.RequireFromString("0.0000000019")))

	usdc := Token{Symbol: "USDC", Decimals: 6}
	amount, err := usdc.FromSmallestUnit("169420000")
	require.NoError(t, err)
	assert.Equal(t, "169.42", amount.String())

	_, err = usdc.FromSmallestUnit("not-a-number")
	assert.Error(t, err)
}

func TestHasPrice(t *testing.T) {
	assert.True(t, Token{Price: decimal.RequireFromString("0.000032")}.HasPrice())
	assert.False(t, Token{}.HasPrice())
	assert.False(t, Token{Price: decimal.Zero}.HasPrice())
}
