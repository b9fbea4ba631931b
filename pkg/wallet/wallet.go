// Package wallet wraps a wallet extension behind a small connection
// state machine and a single normalized connected/publicKey signal.
package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solpulse-swap/pkg/types"
)

// State is the adapter's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateError is retryable: Connect is valid from it.
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Extension is the underlying wallet: a browser extension, a hardware
// signer, or the keypair-backed implementation in keypair.go. The
// OnDisconnect subscription reports unilateral disconnects; the
// returned func unregisters the listener.
type Extension interface {
	Connect(ctx context.Context) (address string, err error)
	Disconnect(ctx context.Context) error
	SignTransaction(tx *solana.Transaction) (*solana.Transaction, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	OnDisconnect(fn func()) (unregister func())
}

// Confirmer is implemented by extensions that can await on-chain
// confirmation of a submitted signature.
type Confirmer interface {
	ConfirmTransaction(ctx context.Context, sig solana.Signature) error
}

// Adapter normalizes the extension's connection state. IsConnected is
// true if and only if the state is Connected AND a non-empty address is
// present: a connected flag without an address (the handshake
// transient) reports disconnected to every consumer.
type Adapter struct {
	mu             sync.Mutex
	ext            Extension
	state          State
	address        string
	lastErr        error
	resetFns       []func()
	unregister     func()
	reconnectDelay time.Duration
	logger         *zap.Logger
}

// NewAdapter wraps the extension and subscribes to its disconnect
// events. An event-driven disconnect goes through the same transition
// as an explicit Disconnect call, including the dependent-state reset.
func NewAdapter(ext Extension, logger *zap.Logger) *Adapter {
	a := &Adapter{
		ext:            ext,
		state:          StateDisconnected,
		reconnectDelay: 500 * time.Millisecond,
		logger:         logger,
	}
	a.unregister = ext.OnDisconnect(a.handleExternalDisconnect)
	return a
}

// Connect transitions Disconnected|Error → Connecting → Connected. On
// failure the adapter lands in the retryable Error state; for every
// consumer it still reports disconnected.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateConnected || a.state == StateConnecting {
		a.mu.Unlock()
		return nil
	}
	a.state = StateConnecting
	a.lastErr = nil
	a.mu.Unlock()

	address, err := a.ext.Connect(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = StateError
		a.lastErr = err
		a.address = ""
		return fmt.Errorf("failed to connect wallet: %w", err)
	}
	if address == "" {
		// Connected flag without an address is the handshake transient;
		// never report it as connected.
		a.state = StateError
		a.lastErr = fmt.Errorf("wallet connected without an address")
		return a.lastErr
	}

	a.state = StateConnected
	a.address = address
	a.logger.Info("wallet connected", zap.String("address", address))
	return nil
}

// Disconnect transitions any state to Disconnected, clears the address,
// and fires the dependent-state reset hooks. A failing underlying
// disconnect is logged, not surfaced: the adapter-side state is cleared
// regardless.
func (a *Adapter) Disconnect(ctx context.Context) error {
	if err := a.ext.Disconnect(ctx); err != nil {
		a.logger.Warn("wallet extension disconnect failed", zap.Error(err))
	}
	a.applyDisconnect()
	return nil
}

// Reconnect disconnects (tolerating failure), waits briefly for the
// disconnect to settle, and connects again.
func (a *Adapter) Reconnect(ctx context.Context) error {
	_ = a.Disconnect(ctx)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.reconnectDelay):
	}

	return a.Connect(ctx)
}

// handleExternalDisconnect is the required transition for the extension
// unilaterally disconnecting; it is identical to an explicit
// Disconnect.
func (a *Adapter) handleExternalDisconnect() {
	a.logger.Info("wallet disconnect event received")
	a.applyDisconnect()
}

func (a *Adapter) applyDisconnect() {
	a.mu.Lock()
	a.state = StateDisconnected
	a.address = ""
	a.lastErr = nil
	resetFns := make([]func(), len(a.resetFns))
	copy(resetFns, a.resetFns)
	a.mu.Unlock()

	// Hooks run outside the lock so they may read adapter state.
	for _, fn := range resetFns {
		fn()
	}
}

// OnReset registers a hook fired on every disconnect path, explicit or
// event-driven. The session controller uses it to reset dependent swap
// state.
func (a *Adapter) OnReset(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetFns = append(a.resetFns, fn)
}

// Close unregisters the disconnect listener.
func (a *Adapter) Close() {
	if a.unregister != nil {
		a.unregister()
		a.unregister = nil
	}
}

// IsConnected reports the normalized connection signal.
func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateConnected && a.address != ""
}

// PublicKey returns the connected address, or "" when not connected.
func (a *Adapter) PublicKey() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateConnected {
		return ""
	}
	return a.address
}

// State returns the current connection state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Err returns the error from the last failed connect attempt, if any.
func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// SignTransaction forwards to the extension. Disconnected adapters
// return types.ErrWalletDisconnected; extension failures wrap
// types.ErrSign.
func (a *Adapter) SignTransaction(tx *solana.Transaction) (*solana.Transaction, error) {
	if !a.IsConnected() {
		return nil, types.ErrWalletDisconnected
	}
	signed, err := a.ext.SignTransaction(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSign, err)
	}
	return signed, nil
}

// SendTransaction forwards to the extension. Failures wrap
// types.ErrSubmit.
func (a *Adapter) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if !a.IsConnected() {
		return solana.Signature{}, types.ErrWalletDisconnected
	}
	sig, err := a.ext.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", types.ErrSubmit, err)
	}
	return sig, nil
}

// ConfirmTransaction awaits confirmation when the extension supports
// it; extensions without confirmation support succeed immediately,
// since the submission itself already went through.
func (a *Adapter) ConfirmTransaction(ctx context.Context, sig solana.Signature) error {
	c, ok := a.ext.(Confirmer)
	if !ok {
		return nil
	}
	if err := c.ConfirmTransaction(ctx, sig); err != nil {
		return fmt.Errorf("%w: %v", types.ErrSubmit, err)
	}
	return nil
}
