package session

import (
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	formatLegacy    = "legacy"
	formatVersioned = "versioned"
)

// decodeSwapTransaction turns the base64 payload returned by the swap
// endpoint into a signable transaction. Both legacy and versioned
// message formats must be accepted because the aggregator switches
// between them per route.
func decodeSwapTransaction(payload string) (*solana.Transaction, string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding transaction payload: %w", err)
	}

	format, err := payloadFormat(raw)
	if err != nil {
		return nil, "", err
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, "", fmt.Errorf("parsing %s transaction: %w", format, err)
	}

	return tx, format, nil
}

// payloadFormat inspects the serialized message header. The byte after
// the signature block carries a high bit when the message is
// versioned; legacy messages start with a plain account count.
func payloadFormat(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty transaction payload")
	}

	sigCount := int(raw[0])
	if sigCount > 127 {
		return "", fmt.Errorf("unexpected signature count encoding: 0x%02x", raw[0])
	}

	off := 1 + sigCount*64
	if off >= len(raw) {
		return "", fmt.Errorf("truncated transaction payload: %d bytes", len(raw))
	}

	if raw[off]&0x80 != 0 {
		return formatVersioned, nil
	}
	return formatLegacy, nil
}
