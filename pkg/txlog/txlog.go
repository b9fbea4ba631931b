// Package txlog persists completed swaps to a hosted Postgres-REST
// datastore and lists them back per wallet address. The table is
// append-only: records are never updated or deleted here.
package txlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"solpulse-swap/pkg/types"
)

const table = "swap_transactions"

// ErrUnavailable marks the store as unconfigured. It is a feature
// condition, not a failure: callers show an explanatory message instead
// of an error or an empty state.
var ErrUnavailable = errors.New("transaction log is not configured")

// Record is one completed swap. ID and CreatedAt are server-assigned.
type Record struct {
	ID            string  `json:"id,omitempty"`
	FromToken     string  `json:"from_token"`
	ToToken       string  `json:"to_token"`
	FromAmount    float64 `json:"from_amount"`
	ToAmount      float64 `json:"to_amount"`
	WalletAddress string  `json:"wallet_address"`
	TxSignature   string  `json:"tx_signature"`
	Timestamp     int64   `json:"timestamp"` // client clock, unix milliseconds
	CreatedAt     string  `json:"created_at,omitempty"`
}

// Store talks to the datastore's REST endpoint using the anon API key.
// A Store built without credentials is valid; its operations return
// ErrUnavailable.
type Store struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a store. Empty baseURL or anonKey disables the feature
// rather than failing.
func New(baseURL, anonKey string, logger *zap.Logger) *Store {
	return &Store{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// Enabled reports whether the datastore credentials are present.
func (s *Store) Enabled() bool {
	return s.baseURL != "" && s.anonKey != ""
}

// Record appends one entry. Failures wrap types.ErrStore and must never
// be treated as swap failures by the caller: the on-chain transaction
// already succeeded.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if !s.Enabled() {
		return ErrUnavailable
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	s.setHeaders(req)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: datastore returned status %d: %s", types.ErrStore, resp.StatusCode, detail)
	}

	s.logger.Debug("swap recorded",
		zap.String("signature", rec.TxSignature),
		zap.String("wallet", rec.WalletAddress))
	return nil
}

// List returns the owner's entries, newest first. Filtering and
// ordering happen server-side.
func (s *Store) List(ctx context.Context, owner string) ([]Record, error) {
	if !s.Enabled() {
		return nil, ErrUnavailable
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=*&wallet_address=eq.%s&order=timestamp.desc",
		s.baseURL, table, url.QueryEscape(owner))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: datastore returned status %d: %s", types.ErrStore, resp.StatusCode, detail)
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: malformed response body: %v", types.ErrStore, err)
	}

	return records, nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+s.anonKey)
	req.Header.Set("Content-Type", "application/json")
}
