package session

import (
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsignedLegacyPayload(t *testing.T) string {
	t.Helper()

	payer := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(nil, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeSwapTransactionLegacy(t *testing.T) {
	tx, format, err := decodeSwapTransaction(unsignedLegacyPayload(t))
	require.NoError(t, err)
	assert.Equal(t, formatLegacy, format)
	assert.NotNil(t, tx)
}

func TestDecodeSwapTransactionRejectsGarbage(t *testing.T) {
	_, _, err := decodeSwapTransaction("not-base64!!")
	assert.Error(t, err)

	_, _, err = decodeSwapTransaction("")
	assert.Error(t, err)
}

func TestPayloadFormatMarkerByte(t *testing.T) {
	sig := make([]byte, 64)

	legacy := append([]byte{1}, sig...)
	legacy = append(legacy, 0x02) // plain account count
	format, err := payloadFormat(legacy)
	require.NoError(t, err)
	assert.Equal(t, formatLegacy, format)

	versioned := append([]byte{1}, sig...)
	versioned = append(versioned, 0x80) // v0 marker
	format, err = payloadFormat(versioned)
	require.NoError(t, err)
	assert.Equal(t, formatVersioned, format)
}

func TestPayloadFormatTruncated(t *testing.T) {
	_, err := payloadFormat([]byte{3, 0x00})
	assert.Error(t, err)
}
