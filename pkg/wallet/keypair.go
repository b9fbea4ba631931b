package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// KeypairExtension is an Extension backed by a local base58-encoded
// keypair and a Solana RPC endpoint. It is the CLI's stand-in for a
// browser wallet: signing happens locally, submission and confirmation
// go through the RPC node.
type KeypairExtension struct {
	client     *rpc.Client
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey

	mu        sync.Mutex
	connected bool
	listeners map[int]func()
	nextID    int
}

// NewKeypairExtension parses the base58 private key and connects to the
// RPC endpoint.
func NewKeypairExtension(rpcURL, privateKeyBase58 string) (*KeypairExtension, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}
	if privateKeyBase58 == "" {
		return nil, fmt.Errorf("wallet key not configured")
	}

	privateKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet key: %w", err)
	}

	return &KeypairExtension{
		client:     rpc.New(rpcURL),
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
		listeners:  make(map[int]func()),
	}, nil
}

// Connect marks the extension connected and returns its address.
func (k *KeypairExtension) Connect(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.connected = true
	return k.publicKey.String(), nil
}

// Disconnect marks the extension disconnected.
func (k *KeypairExtension) Disconnect(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.connected = false
	return nil
}

// OnDisconnect registers a listener for unilateral disconnects. A local
// keypair never disconnects on its own, but the subscription contract
// is honored for adapter parity with real extensions.
func (k *KeypairExtension) OnDisconnect(fn func()) func() {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := k.nextID
	k.nextID++
	k.listeners[id] = fn
	return func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		delete(k.listeners, id)
	}
}

// SignTransaction signs with the local keypair.
func (k *KeypairExtension) SignTransaction(tx *solana.Transaction) (*solana.Transaction, error) {
	k.mu.Lock()
	connected := k.connected
	k.mu.Unlock()
	if !connected {
		return nil, fmt.Errorf("wallet disconnected")
	}

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(k.publicKey) {
			return &k.privateKey
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

// SendTransaction submits the signed transaction.
func (k *KeypairExtension) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	k.mu.Lock()
	connected := k.connected
	k.mu.Unlock()
	if !connected {
		return solana.Signature{}, fmt.Errorf("wallet disconnected")
	}

	sig, err := k.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls signature status until the transaction is
// confirmed, fails, or the context expires.
func (k *KeypairExtension) ConfirmTransaction(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation timed out: %w", ctx.Err())
		case <-ticker.C:
		}

		out, err := k.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			// Transient RPC failure: keep polling.
			continue
		}
		if len(out.Value) == 0 || out.Value[0] == nil {
			continue
		}

		status := out.Value[0]
		if status.Err != nil {
			return fmt.Errorf("transaction failed on-chain: %v", status.Err)
		}
		if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return nil
		}
	}
}
