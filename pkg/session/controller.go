package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solpulse-swap/pkg/jupiter"
	"solpulse-swap/pkg/txlog"
	"solpulse-swap/pkg/types"
)

// DefaultQuoteDebounce is how long input must stay untouched before a
// quote request fires.
const DefaultQuoteDebounce = 500 * time.Millisecond

// Quoter fetches a priced route for an exact input amount.
type Quoter interface {
	GetQuote(ctx context.Context, inputMint, outputMint, amount string, slippageBps int) (*jupiter.Quote, error)
}

// Builder turns an accepted quote into an unsigned transaction payload.
type Builder interface {
	BuildSwapTransaction(ctx context.Context, quote *jupiter.Quote, userPublicKey string) (*jupiter.SwapTransaction, error)
}

// Wallet is the slice of the wallet adapter the controller needs.
type Wallet interface {
	IsConnected() bool
	PublicKey() string
	SignTransaction(tx *solana.Transaction) (*solana.Transaction, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature) error
}

// Recorder persists settled swaps. Recording is best-effort; a failed
// or unavailable recorder never fails the swap itself.
type Recorder interface {
	Record(ctx context.Context, rec txlog.Record) error
}

// Controller owns the swap state machine for one session. All state
// transitions happen under a single lock; quote responses arriving
// from the network are tagged with the generation that requested them
// and dropped if the inputs moved on in the meantime.
type Controller struct {
	quoter   Quoter
	builder  Builder
	wallet   Wallet
	recorder Recorder
	logger   *zap.Logger

	mu            sync.Mutex
	state         SwapState
	phase         Phase
	gen           uint64
	debounce      *time.Timer
	debounceDelay time.Duration
	resetPending  bool
}

// NewController builds a controller in the Idle phase with default
// swap state. The recorder may be nil when history is unavailable.
func NewController(quoter Quoter, builder Builder, wallet Wallet, recorder Recorder, logger *zap.Logger) *Controller {
	return &Controller{
		quoter:        quoter,
		builder:       builder,
		wallet:        wallet,
		recorder:      recorder,
		logger:        logger,
		state:         DefaultSwapState(),
		phase:         PhaseIdle,
		debounceDelay: DefaultQuoteDebounce,
	}
}

// SetQuoteDebounce overrides the input settle delay. Must be called
// before the first input edit.
func (c *Controller) SetQuoteDebounce(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounceDelay = d
}

// Snapshot returns a copy of the current state and phase.
func (c *Controller) Snapshot() (SwapState, Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.phase
}

// SetFromToken selects the token being sold.
func (c *Controller) SetFromToken(t *types.Token) {
	c.editInputs(func(s *SwapState) { s.FromToken = t })
}

// SetToToken selects the token being bought.
func (c *Controller) SetToToken(t *types.Token) {
	c.editInputs(func(s *SwapState) { s.ToToken = t })
}

// SetFromAmount updates the input amount, expressed in whole tokens.
func (c *Controller) SetFromAmount(amount string) {
	c.editInputs(func(s *SwapState) { s.FromAmount = amount })
}

// SetSlippageBps updates the slippage tolerance. Values outside
// 1..10000 are ignored.
func (c *Controller) SetSlippageBps(bps int) {
	if bps < 1 || bps > 10000 {
		return
	}
	c.editInputs(func(s *SwapState) { s.SlippageBps = bps })
}

// editInputs applies one input mutation, invalidates any in-flight or
// displayed route, and restarts the quote debounce. Edits are rejected
// while an execution is in flight.
func (c *Controller) editInputs(apply func(*SwapState)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseExecuting {
		return
	}

	apply(&c.state)
	c.state.Route = nil
	c.state.ToAmount = ""
	if c.phase == PhaseError {
		c.state.Err = nil
	}
	c.phase = PhaseIdle
	c.scheduleQuoteLocked()
}

// scheduleQuoteLocked bumps the generation so any response still in
// flight lands dead, then restarts the debounce timer.
func (c *Controller) scheduleQuoteLocked() {
	c.gen++
	if c.debounce == nil {
		c.debounce = time.AfterFunc(c.debounceDelay, c.onDebounce)
		return
	}
	c.debounce.Reset(c.debounceDelay)
}

// onDebounce fires once the inputs have settled. It always derives a
// local estimate first so the user sees an approximate output even
// with no wallet attached, then asks the aggregator for a firm route
// when one can be executed.
func (c *Controller) onDebounce() {
	c.mu.Lock()

	if c.phase == PhaseExecuting {
		c.mu.Unlock()
		return
	}

	from, to := c.state.FromToken, c.state.ToToken
	amount, ok := parseAmount(c.state.FromAmount)
	if from == nil || to == nil || !ok {
		c.state.ToAmount = ""
		c.phase = PhaseIdle
		c.mu.Unlock()
		return
	}

	if est, ok := localEstimate(from, to, amount); ok {
		c.state.ToAmount = est
	}

	if !c.wallet.IsConnected() {
		// Estimate-only mode: without a wallet there is nothing to
		// execute, so the session never advances past Quoted.
		c.phase = PhaseQuoted
		c.mu.Unlock()
		return
	}

	c.phase = PhaseQuoting
	c.state.Loading = true
	gen := c.gen
	inputMint, outputMint := from.Address, to.Address
	rawAmount := from.ToSmallestUnit(amount)
	slippage := c.state.SlippageBps
	c.mu.Unlock()

	go func() {
		quote, err := c.quoter.GetQuote(context.Background(), inputMint, outputMint, rawAmount, slippage)
		c.applyQuote(gen, quote, err)
	}()
}

// applyQuote installs a quote response if it still matches the inputs
// that requested it.
func (c *Controller) applyQuote(gen uint64, quote *jupiter.Quote, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.phase != PhaseQuoting {
		c.logger.Debug("discarding stale quote", zap.Uint64("gen", gen), zap.Uint64("current", c.gen))
		return
	}

	c.state.Loading = false

	if err != nil {
		c.logger.Warn("quote request failed", zap.Error(err))
		c.state.Err = err
		c.phase = PhaseError
		return
	}

	out, cerr := c.state.ToToken.FromSmallestUnit(quote.OutAmount)
	if cerr != nil {
		c.state.Err = fmt.Errorf("%w: malformed out amount %q", types.ErrQuote, quote.OutAmount)
		c.phase = PhaseError
		return
	}

	c.state.Route = quote
	c.state.ToAmount = out.String()
	c.phase = PhaseQuoted
}

// FlipDirection swaps the trade direction. Amounts are cleared rather
// than carried across, since an input amount of one token is not an
// input amount of the other.
func (c *Controller) FlipDirection() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseExecuting {
		return fmt.Errorf("cannot flip direction while a swap is executing")
	}

	c.state.FromToken, c.state.ToToken = c.state.ToToken, c.state.FromToken
	c.state.FromAmount = ""
	c.state.ToAmount = ""
	c.state.Route = nil
	c.state.Err = nil
	c.state.Loading = false
	c.phase = PhaseIdle
	c.gen++
	if c.debounce != nil {
		c.debounce.Stop()
	}
	return nil
}

// Retry acknowledges a recoverable error and returns to Idle with the
// inputs intact. Completing a reconnect after a mid-swap disconnect
// also applies the deferred state reset.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseError {
		return
	}

	if c.resetPending {
		c.resetLocked()
		return
	}

	c.state.Err = nil
	c.phase = PhaseIdle
}

// HandleWalletDisconnect resets the session to defaults. Registered
// with the wallet adapter so explicit disconnects, reconnect cycles
// and extension-initiated drops all land here. An in-flight execution
// is left to finish or fail on its own; the reset is applied after.
func (c *Controller) HandleWalletDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseExecuting {
		c.resetPending = true
		return
	}
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.state = DefaultSwapState()
	c.phase = PhaseIdle
	c.resetPending = false
	c.gen++
	if c.debounce != nil {
		c.debounce.Stop()
	}
}

// ExecuteSwap runs the full build, sign, submit and confirm pipeline
// for the currently quoted route. It is fire-once: any failure lands
// in the Error phase and a fresh quote is required before the next
// attempt.
func (c *Controller) ExecuteSwap(ctx context.Context) (solana.Signature, error) {
	c.mu.Lock()

	if c.phase != PhaseQuoted || c.state.Route == nil {
		c.mu.Unlock()
		return solana.Signature{}, fmt.Errorf("no executable quote; wait for a fresh route")
	}
	if !c.wallet.IsConnected() {
		c.mu.Unlock()
		return solana.Signature{}, types.ErrWalletDisconnected
	}
	amount, ok := parseAmount(c.state.FromAmount)
	if !ok {
		c.mu.Unlock()
		return solana.Signature{}, fmt.Errorf("invalid input amount %q", c.state.FromAmount)
	}

	c.phase = PhaseExecuting
	c.state.Loading = true
	c.state.Err = nil
	route := c.state.Route
	from, to := c.state.FromToken, c.state.ToToken
	toAmount := c.state.ToAmount
	payer := c.wallet.PublicKey()
	c.mu.Unlock()

	swapTx, err := c.builder.BuildSwapTransaction(ctx, route, payer)
	if err != nil {
		return solana.Signature{}, c.failExecution(err)
	}

	tx, format, err := decodeSwapTransaction(swapTx.SwapTransaction)
	if err != nil {
		return solana.Signature{}, c.failExecution(fmt.Errorf("%w: %v", types.ErrBuild, err))
	}
	c.logger.Debug("decoded swap transaction", zap.String("format", format))

	signed, err := c.wallet.SignTransaction(tx)
	if err != nil {
		return solana.Signature{}, c.failExecution(err)
	}

	sig, err := c.wallet.SendTransaction(ctx, signed)
	if err != nil {
		return solana.Signature{}, c.failExecution(err)
	}

	if err := c.wallet.ConfirmTransaction(ctx, sig); err != nil {
		return solana.Signature{}, c.failExecution(fmt.Errorf("%w: %v", types.ErrSubmit, err))
	}

	c.recordSwap(ctx, from, to, amount, toAmount, payer, sig)

	c.mu.Lock()
	c.phase = PhaseSettled
	c.state.Loading = false
	c.logger.Info("swap settled",
		zap.String("signature", sig.String()),
		zap.String("from", from.Symbol),
		zap.String("to", to.Symbol),
	)
	if c.resetPending {
		c.resetLocked()
	} else {
		// Back to Idle for the next trade, keeping the pair selected.
		c.state.FromAmount = ""
		c.state.ToAmount = ""
		c.state.Route = nil
		c.phase = PhaseIdle
	}
	c.mu.Unlock()

	return sig, nil
}

// failExecution records an execution failure. A wallet disconnection
// is kept distinct so callers can offer a reconnect instead of a
// plain error, and the session is not forced back to defaults until
// that reconnect completes.
func (c *Controller) failExecution(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if errors.Is(err, types.ErrWalletDisconnected) || !c.wallet.IsConnected() {
		if !errors.Is(err, types.ErrWalletDisconnected) {
			err = fmt.Errorf("%w: %v", types.ErrWalletDisconnected, err)
		}
		c.resetPending = false
		c.state.Err = err
		c.state.Loading = false
		c.phase = PhaseError
		c.logger.Warn("swap interrupted by wallet disconnect", zap.Error(err))
		return err
	}

	if c.resetPending {
		c.resetLocked()
		return err
	}

	c.state.Err = err
	c.state.Loading = false
	c.phase = PhaseError
	c.logger.Warn("swap execution failed", zap.Error(err))
	return err
}

// recordSwap appends the settled swap to the transaction log. Failures
// are logged and swallowed; the swap already happened on chain.
func (c *Controller) recordSwap(ctx context.Context, from, to *types.Token, amount decimal.Decimal, toAmount, payer string, sig solana.Signature) {
	if c.recorder == nil {
		return
	}

	out, _ := decimal.NewFromString(toAmount)
	rec := txlog.Record{
		ID:            uuid.NewString(),
		FromToken:     from.Symbol,
		ToToken:       to.Symbol,
		FromAmount:    amount.InexactFloat64(),
		ToAmount:      out.InexactFloat64(),
		WalletAddress: payer,
		TxSignature:   sig.String(),
		Timestamp:     time.Now().UnixMilli(),
	}

	if err := c.recorder.Record(ctx, rec); err != nil {
		if errors.Is(err, txlog.ErrUnavailable) {
			return
		}
		c.logger.Warn("recording swap failed", zap.Error(err))
	}
}

// Close stops the debounce timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.debounce != nil {
		c.debounce.Stop()
	}
}

// parseAmount accepts a positive decimal amount.
func parseAmount(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// localEstimate derives an approximate output from cached USD prices.
// It needs both sides priced; otherwise the output stays blank until a
// firm quote arrives.
func localEstimate(from, to *types.Token, amount decimal.Decimal) (string, bool) {
	if !from.HasPrice() || !to.HasPrice() {
		return "", false
	}
	return amount.Mul(from.Price).Div(to.Price).String(), true
}
