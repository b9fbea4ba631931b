package session

import (
	"errors"

	"solpulse-swap/pkg/jupiter"
	"solpulse-swap/pkg/types"
)

// Phase is the controller's position in one swap attempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseQuoting
	PhaseQuoted
	PhaseExecuting
	PhaseSettled
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseQuoting:
		return "quoting"
	case PhaseQuoted:
		return "quoted"
	case PhaseExecuting:
		return "executing"
	case PhaseSettled:
		return "settled"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// SwapState is the user-facing swap state. Exactly one mutable instance
// exists per session, owned exclusively by the Controller; consumers
// only ever see copies. Tokens are borrowed from the catalog, not
// owned.
type SwapState struct {
	FromToken   *types.Token
	ToToken     *types.Token
	FromAmount  string
	ToAmount    string // always derived, never user-edited
	SlippageBps int
	Route       *jupiter.Quote
	Loading     bool
	Err         error
}

// DefaultSlippageBps is 1%.
const DefaultSlippageBps = 100

// DefaultSwapState returns the documented defaults the state resets to
// on wallet disconnect.
func DefaultSwapState() SwapState {
	return SwapState{SlippageBps: DefaultSlippageBps}
}

// NeedsReconnect reports whether the current error is a mid-flight
// wallet disconnection, for which the caller offers a one-click
// reconnect action instead of a plain failure message.
func (s SwapState) NeedsReconnect() bool {
	return errors.Is(s.Err, types.ErrWalletDisconnected)
}
