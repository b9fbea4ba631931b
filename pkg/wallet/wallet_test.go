package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solpulse-swap/pkg/types"
)

type fakeExtension struct {
	address     string
	connectErr  error
	signErr     error
	sendErr     error
	sig         solana.Signature
	connects    int
	disconnects int
	listener    func()
	unregisters int
}

func (f *fakeExtension) Connect(_ context.Context) (string, error) {
	f.connects++
	if f.connectErr != nil {
		return "", f.connectErr
	}
	return f.address, nil
}

func (f *fakeExtension) Disconnect(_ context.Context) error {
	f.disconnects++
	return nil
}

func (f *fakeExtension) SignTransaction(tx *solana.Transaction) (*solana.Transaction, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return tx, nil
}

func (f *fakeExtension) SendTransaction(_ context.Context, _ *solana.Transaction) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return f.sig, nil
}

func (f *fakeExtension) OnDisconnect(fn func()) func() {
	f.listener = fn
	return func() { f.unregisters++ }
}

// fires the extension's own disconnect event
func (f *fakeExtension) dropConnection() {
	if f.listener != nil {
		f.listener()
	}
}

const testAddress = "7S3P4HxJpyyigGzodYwHtCxZyUQe9JiBMHyRWXArAaKv"

func newTestAdapter(ext *fakeExtension) *Adapter {
	a := NewAdapter(ext, zap.NewNop())
	a.reconnectDelay = time.Millisecond
	return a
}

func TestConnectLifecycle(t *testing.T) {
	ext := &fakeExtension{address: testAddress}
	a := newTestAdapter(ext)
	defer a.Close()

	assert.Equal(t, StateDisconnected, a.State())
	assert.False(t, a.IsConnected())
	assert.Empty(t, a.PublicKey())

	require.NoError(t, a.Connect(context.Background()))
	assert.Equal(t, StateConnected, a.State())
	assert.True(t, a.IsConnected())
	assert.Equal(t, testAddress, a.PublicKey())

	// Connect is idempotent while connected.
	require.NoError(t, a.Connect(context.Background()))
	assert.Equal(t, 1, ext.connects)

	require.NoError(t, a.Disconnect(context.Background()))
	assert.Equal(t, StateDisconnected, a.State())
	assert.False(t, a.IsConnected())
	assert.Empty(t, a.PublicKey())
}

func TestConnectFailureIsRetryable(t *testing.T) {
	ext := &fakeExtension{connectErr: errors.New("user rejected")}
	a := newTestAdapter(ext)
	defer a.Close()

	err := a.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, a.State())
	assert.False(t, a.IsConnected())
	assert.Error(t, a.Err())

	// Error state accepts a fresh attempt.
	ext.connectErr = nil
	ext.address = testAddress
	require.NoError(t, a.Connect(context.Background()))
	assert.True(t, a.IsConnected())
	assert.NoError(t, a.Err())
}

func TestConnectedWithoutAddressReportsDisconnected(t *testing.T) {
	ext := &fakeExtension{address: ""}
	a := newTestAdapter(ext)
	defer a.Close()

	err := a.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, a.IsConnected())
	assert.Empty(t, a.PublicKey())
	assert.Equal(t, StateError, a.State())
}

func TestExternalDisconnectMatchesExplicit(t *testing.T) {
	ext := &fakeExtension{address: testAddress}
	a := newTestAdapter(ext)
	defer a.Close()

	resets := 0
	a.OnReset(func() { resets++ })

	require.NoError(t, a.Connect(context.Background()))

	// The extension drops the session on its own; the adapter must
	// land exactly where an explicit Disconnect would.
	ext.dropConnection()
	assert.Equal(t, StateDisconnected, a.State())
	assert.False(t, a.IsConnected())
	assert.Empty(t, a.PublicKey())
	assert.Equal(t, 1, resets)

	require.NoError(t, a.Connect(context.Background()))
	require.NoError(t, a.Disconnect(context.Background()))
	assert.Equal(t, 2, resets)
}

func TestReconnectCycles(t *testing.T) {
	ext := &fakeExtension{address: testAddress}
	a := newTestAdapter(ext)
	defer a.Close()

	require.NoError(t, a.Connect(context.Background()))
	require.NoError(t, a.Reconnect(context.Background()))

	assert.True(t, a.IsConnected())
	assert.Equal(t, 2, ext.connects)
	assert.Equal(t, 1, ext.disconnects)
}

func TestReconnectHonorsContext(t *testing.T) {
	ext := &fakeExtension{address: testAddress}
	a := newTestAdapter(ext)
	defer a.Close()
	a.reconnectDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.Reconnect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, a.IsConnected())
}

func TestSigningRequiresConnection(t *testing.T) {
	ext := &fakeExtension{address: testAddress}
	a := newTestAdapter(ext)
	defer a.Close()

	_, err := a.SignTransaction(&solana.Transaction{})
	assert.ErrorIs(t, err, types.ErrWalletDisconnected)

	_, err = a.SendTransaction(context.Background(), &solana.Transaction{})
	assert.ErrorIs(t, err, types.ErrWalletDisconnected)

	require.NoError(t, a.Connect(context.Background()))

	_, err = a.SignTransaction(&solana.Transaction{})
	assert.NoError(t, err)
}

func TestSignAndSendErrorsAreTyped(t *testing.T) {
	ext := &fakeExtension{address: testAddress, signErr: errors.New("locked"), sendErr: errors.New("blockhash expired")}
	a := newTestAdapter(ext)
	defer a.Close()
	require.NoError(t, a.Connect(context.Background()))

	_, err := a.SignTransaction(&solana.Transaction{})
	assert.ErrorIs(t, err, types.ErrSign)

	_, err = a.SendTransaction(context.Background(), &solana.Transaction{})
	assert.ErrorIs(t, err, types.ErrSubmit)
}

func TestCloseUnregistersListener(t *testing.T) {
	ext := &fakeExtension{address: testAddress}
	a := newTestAdapter(ext)

	a.Close()
	assert.Equal(t, 1, ext.unregisters)
	a.Close()
	assert.Equal(t, 1, ext.unregisters)
}
