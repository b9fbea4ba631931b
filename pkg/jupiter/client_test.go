package jupiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solpulse-swap/pkg/types"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, solMint, q.Get("inputMint"))
		assert.Equal(t, usdcMint, q.Get("outputMint"))
		assert.Equal(t, "1000000000", q.Get("amount"))
		assert.Equal(t, "100", q.Get("slippageBps"))

		json.NewEncoder(w).Encode(Quote{
			InputMint:   solMint,
			InAmount:    "1000000000",
			OutputMint:  usdcMint,
			OutAmount:   "169420000",
			SwapMode:    "ExactIn",
			SlippageBps: 100,
			RoutePlan: []RoutePlanStep{
				{SwapInfo: SwapInfo{Label: "Orca", InputMint: solMint, OutputMint: usdcMint}, Percent: 100},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 30, "11111111111111111111111111111111", zap.NewNop())
	quote, err := c.GetQuote(context.Background(), solMint, usdcMint, "1000000000", 100)
	require.NoError(t, err)
	assert.Equal(t, "169420000", quote.OutAmount)
	require.Len(t, quote.RoutePlan, 1)
	assert.Equal(t, "Orca", quote.RoutePlan[0].SwapInfo.Label)
}

func TestGetQuoteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Could not find any route"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 30, "", zap.NewNop())
	_, err := c.GetQuote(context.Background(), solMint, usdcMint, "1", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrQuote)
	assert.Contains(t, err.Error(), "Could not find any route")
}

func TestGetQuoteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 30, "", zap.NewNop())
	_, err := c.GetQuote(context.Background(), solMint, usdcMint, "1", 100)
	assert.ErrorIs(t, err, types.ErrQuote)
}

func TestGetQuoteEmptyOutAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 30, "", zap.NewNop())
	_, err := c.GetQuote(context.Background(), solMint, usdcMint, "1", 100)
	assert.ErrorIs(t, err, types.ErrQuote)
}

func TestBuildSwapTransaction(t *testing.T) {
	user := "7S3P4HxJpyyigGzodYwHtCxZyUQe9JiBMHyRWXArAaKv"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, user, req["userPublicKey"])
		assert.Equal(t, "11111111111111111111111111111111", req["feeAccount"])
		assert.EqualValues(t, 30, req["feeBps"])
		assert.NotNil(t, req["quoteResponse"])

		json.NewEncoder(w).Encode(SwapTransaction{SwapTransaction: "AQID"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 30, "11111111111111111111111111111111", zap.NewNop())
	swapTx, err := c.BuildSwapTransaction(context.Background(), &Quote{InputMint: solMint, OutAmount: "169420000"}, user)
	require.NoError(t, err)
	assert.Equal(t, "AQID", swapTx.SwapTransaction)
}

func TestBuildSwapTransactionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"simulation failed"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 30, "", zap.NewNop())
	_, err := c.BuildSwapTransaction(context.Background(), &Quote{OutAmount: "1"}, "user")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBuild)
	assert.Contains(t, err.Error(), "simulation failed")
}

func TestBuildSwapTransactionEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 30, "", zap.NewNop())
	_, err := c.BuildSwapTransaction(context.Background(), &Quote{OutAmount: "1"}, "user")
	assert.ErrorIs(t, err, types.ErrBuild)
}
