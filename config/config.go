package config

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

// Default Jupiter v6 endpoints and protocol fee settings.
const (
	DefaultQuoteAPI = "https://quote-api.jup.ag/v6/quote"
	DefaultSwapAPI  = "https://quote-api.jup.ag/v6/swap"
	DefaultTokenAPI = "https://token.jup.ag/strict"

	// Protocol fee in basis points (30 = 0.3%), collected into FeeAccount.
	DefaultFeeBps     = 30
	DefaultFeeAccount = "11111111111111111111111111111111"
)

// Config holds the application configuration
type Config struct {
	Network    string // "mainnet" or "devnet"
	RPCURL     string
	QuoteAPI   string
	SwapAPI    string
	TokenAPI   string
	FeeBps     int
	FeeAccount string

	// Transaction history datastore. Both must be set for the
	// feature to be enabled; missing values disable it, they are
	// not an error.
	SupabaseURL     string
	SupabaseAnonKey string

	// Base58-encoded keypair used by the CLI signer. Optional:
	// without it the tool runs in quote-only mode.
	WalletKey string
}

var globalConfig *Config

// Load reads configuration from environment variables and an optional config file
func Load() (*Config, error) {
	viper.SetConfigName(".solpulse")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("network", "mainnet")
	viper.SetDefault("quote_api", DefaultQuoteAPI)
	viper.SetDefault("swap_api", DefaultSwapAPI)
	viper.SetDefault("token_api", DefaultTokenAPI)
	viper.SetDefault("fee_bps", DefaultFeeBps)
	viper.SetDefault("fee_account", DefaultFeeAccount)

	viper.SetEnvPrefix("SOLPULSE")
	viper.AutomaticEnv()

	// Config file is optional.
	_ = viper.ReadInConfig()

	cfg := &Config{
		Network:         viper.GetString("network"),
		RPCURL:          viper.GetString("rpc_url"),
		QuoteAPI:        viper.GetString("quote_api"),
		SwapAPI:         viper.GetString("swap_api"),
		TokenAPI:        viper.GetString("token_api"),
		FeeBps:          viper.GetInt("fee_bps"),
		FeeAccount:      viper.GetString("fee_account"),
		SupabaseURL:     viper.GetString("supabase_url"),
		SupabaseAnonKey: viper.GetString("supabase_anon_key"),
		WalletKey:       viper.GetString("wallet_key"),
	}

	if cfg.Network != "mainnet" && cfg.Network != "devnet" {
		return nil, fmt.Errorf("invalid network %q: must be 'mainnet' or 'devnet'", cfg.Network)
	}
	if cfg.FeeBps < 0 || cfg.FeeBps > 10000 {
		return nil, fmt.Errorf("invalid fee_bps %d: must be between 0 and 10000", cfg.FeeBps)
	}

	// Resolve the default cluster endpoint when no override is given.
	if cfg.RPCURL == "" {
		switch cfg.Network {
		case "devnet":
			cfg.RPCURL = rpc.DevNet_RPC
		default:
			cfg.RPCURL = rpc.MainNetBeta_RPC
		}
	}

	globalConfig = cfg
	return cfg, nil
}

// HistoryEnabled reports whether the transaction history datastore is configured.
func (c *Config) HistoryEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
