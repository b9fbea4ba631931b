package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"solpulse-swap/pkg/types"
)

// RPCBalanceSource reads balances from a Solana RPC node.
type RPCBalanceSource struct {
	client *rpc.Client
}

// NewRPCBalanceSource connects a balance source to the given RPC
// endpoint.
func NewRPCBalanceSource(rpcURL string) *RPCBalanceSource {
	return &RPCBalanceSource{client: rpc.New(rpcURL)}
}

// SOLBalance returns the native balance in SOL.
func (s *RPCBalanceSource) SOLBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	pub, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid owner address: %v", types.ErrFetch, err)
	}

	balance, err := s.client.GetBalance(ctx, pub, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", types.ErrFetch, err)
	}

	// 1 SOL = 1e9 lamports.
	return decimal.NewFromUint64(balance.Value).Shift(-9), nil
}

// TokenBalance returns the owner's SPL token balance via the associated
// token account. A missing account means a zero balance, not an error.
func (s *RPCBalanceSource) TokenBalance(ctx context.Context, owner, mint string, decimals int) (decimal.Decimal, error) {
	ownerPub, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid owner address: %v", types.ErrFetch, err)
	}
	mintPub, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid mint address: %v", types.ErrFetch, err)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(ownerPub, mintPub)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to derive associated token address: %v", types.ErrFetch, err)
	}

	balance, err := s.client.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		if strings.Contains(err.Error(), "could not find account") || strings.Contains(err.Error(), "not found") {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%w: %v", types.ErrFetch, err)
	}

	raw, err := decimal.NewFromString(balance.Value.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to parse token balance: %v", types.ErrFetch, err)
	}

	return raw.Shift(int32(-decimals)), nil
}
