package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	return Load()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadClean(t)
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, DefaultQuoteAPI, cfg.QuoteAPI)
	assert.Equal(t, DefaultSwapAPI, cfg.SwapAPI)
	assert.Equal(t, DefaultTokenAPI, cfg.TokenAPI)
	assert.Equal(t, DefaultFeeBps, cfg.FeeBps)
	assert.Equal(t, DefaultFeeAccount, cfg.FeeAccount)
	assert.NotEmpty(t, cfg.RPCURL)
	assert.False(t, cfg.HistoryEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SOLPULSE_NETWORK", "devnet")
	t.Setenv("SOLPULSE_FEE_BPS", "50")
	t.Setenv("SOLPULSE_RPC_URL", "http://localhost:8899")

	cfg, err := loadClean(t)
	require.NoError(t, err)
	assert.Equal(t, "devnet", cfg.Network)
	assert.Equal(t, 50, cfg.FeeBps)
	assert.Equal(t, "http://localhost:8899", cfg.RPCURL)
}

func TestLoadRejectsInvalidNetwork(t *testing.T) {
	t.Setenv("SOLPULSE_NETWORK", "testnet")
	_, err := loadClean(t)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidFee(t *testing.T) {
	t.Setenv("SOLPULSE_FEE_BPS", "20000")
	_, err := loadClean(t)
	assert.Error(t, err)
}

func TestHistoryEnabledNeedsBothValues(t *testing.T) {
	t.Setenv("SOLPULSE_SUPABASE_URL", "https://example.supabase.co")

	cfg, err := loadClean(t)
	require.NoError(t, err)
	assert.False(t, cfg.HistoryEnabled())

	t.Setenv("SOLPULSE_SUPABASE_ANON_KEY", "anon")
	cfg, err = loadClean(t)
	require.NoError(t, err)
	assert.True(t, cfg.HistoryEnabled())
}
