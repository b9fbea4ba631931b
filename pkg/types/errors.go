package types

import "errors"

// Error kinds for the swap pipeline. Callers wrap these with
// fmt.Errorf("...: %w", ...) and match with errors.Is. None of them is
// fatal to the process; every failure leaves the session retryable.
var (
	// ErrFetch covers token catalog and balance load failures. Callers
	// degrade to fallback data instead of surfacing it as fatal.
	ErrFetch = errors.New("fetch failed")

	// ErrQuote is returned when the quote API call fails (network,
	// non-2xx, malformed body).
	ErrQuote = errors.New("quote failed")

	// ErrBuild is returned when the swap-build API call fails.
	ErrBuild = errors.New("swap build failed")

	// ErrSign is returned when the wallet rejects or cannot sign.
	ErrSign = errors.New("sign failed")

	// ErrSubmit is returned when submitting the signed transaction to
	// the network fails.
	ErrSubmit = errors.New("submit failed")

	// ErrWalletDisconnected marks a disconnection detected mid-flight.
	// It is distinguished from generic failures so the caller can offer
	// a reconnect action instead of a plain error message.
	ErrWalletDisconnected = errors.New("wallet disconnected")

	// ErrStore is returned when recording a completed swap fails. It is
	// never surfaced as a swap failure: the transaction already
	// succeeded on-chain by that point.
	ErrStore = errors.New("store failed")
)
