// Package jupiter is a thin client over the Jupiter v6 quote and
// swap-build HTTP APIs. Both operations are fire-once: no internal
// retry, no backoff, no deduplication of concurrent identical calls.
// Each is idempotent from the caller's perspective, so retry policy
// belongs entirely to the caller.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"solpulse-swap/pkg/types"
)

// Client calls the quote and swap-build endpoints.
type Client struct {
	quoteURL   string
	swapURL    string
	feeBps     int
	feeAccount string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Jupiter API client. The protocol fee (basis
// points) and fee-recipient account are embedded into every swap-build
// request.
func NewClient(quoteURL, swapURL string, feeBps int, feeAccount string, logger *zap.Logger) *Client {
	return &Client{
		quoteURL:   quoteURL,
		swapURL:    swapURL,
		feeBps:     feeBps,
		feeAccount: feeAccount,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// GetQuote fetches a single quote for swapping amount (smallest-unit
// integer string) of inputMint into outputMint. Failures wrap
// types.ErrQuote; the caller owns any retry policy.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint, amount string, slippageBps int) (*Quote, error) {
	u, err := url.Parse(c.quoteURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid quote URL: %v", types.ErrQuote, err)
	}

	q := u.Query()
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", amount)
	q.Set("slippageBps", strconv.Itoa(slippageBps))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrQuote, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrQuote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", types.ErrQuote, apiErrorMessage(resp))
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("%w: malformed response body: %v", types.ErrQuote, err)
	}
	if quote.OutAmount == "" {
		return nil, fmt.Errorf("%w: empty quote response", types.ErrQuote)
	}

	c.logger.Debug("quote received",
		zap.String("inputMint", inputMint),
		zap.String("outputMint", outputMint),
		zap.String("inAmount", amount),
		zap.String("outAmount", quote.OutAmount),
		zap.Int("routeLegs", len(quote.RoutePlan)))

	return &quote, nil
}

// BuildSwapTransaction asks the aggregator to build a signable
// transaction for the given quote, payable by userPublicKey, with the
// configured protocol fee attached. Failures wrap types.ErrBuild.
func (c *Client) BuildSwapTransaction(ctx context.Context, quote *Quote, userPublicKey string) (*SwapTransaction, error) {
	body, err := json.Marshal(swapRequest{
		QuoteResponse: quote,
		UserPublicKey: userPublicKey,
		FeeAccount:    c.feeAccount,
		FeeBps:        c.feeBps,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBuild, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.swapURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBuild, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBuild, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", types.ErrBuild, apiErrorMessage(resp))
	}

	var swapTx SwapTransaction
	if err := json.NewDecoder(resp.Body).Decode(&swapTx); err != nil {
		return nil, fmt.Errorf("%w: malformed response body: %v", types.ErrBuild, err)
	}
	if swapTx.SwapTransaction == "" {
		return nil, fmt.Errorf("%w: empty swap transaction", types.ErrBuild)
	}

	return &swapTx, nil
}

// apiErrorMessage extracts the most useful error message from a non-2xx
// response: a JSON "error" or "message" field when present, the raw
// body otherwise.
func apiErrorMessage(resp *http.Response) string {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(bodyBytes) == 0 {
		return fmt.Sprintf("API returned status code %d", resp.StatusCode)
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if message, ok := errorResp["error"].(string); ok && message != "" {
			return fmt.Sprintf("API error (status %d): %s", resp.StatusCode, message)
		}
		if message, ok := errorResp["message"].(string); ok && message != "" {
			return fmt.Sprintf("API error (status %d): %s", resp.StatusCode, message)
		}
	}

	return fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
}
