package txlog

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

const anonKey = "test-anon-key"

func TestUnconfiguredStoreIsUnavailableNotBroken(t *testing.T) {
	for _, s := range []*Store{
		New("", "", zap.NewNop()),
		New("https://example.supabase.co", "", zap.NewNop()),
		New("", anonKey, zap.NewNop()),
	} {
		assert.False(t, s.Enabled())

		err := s.Record(context.Background(), Record{})
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.NotErrorIs(t, err, types.ErrStore)

		_, err = s.List(context.Background(), "owner")
		assert.ErrorIs(t, err, ErrUnavailable)
	}
}

func TestRecordAppends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/swap_transactions", r.URL.Path)
		assert.Equal(t, anonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+anonKey, r.Header.Get("Authorization"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		var rec Record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		assert.Equal(t, "SOL", rec.FromToken)
		assert.Equal(t, "USDC", rec.ToToken)
		assert.Equal(t, "sig111", rec.TxSignature)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := New(srv.URL, anonKey, zap.NewNop())
	require.True(t, s.Enabled())

	err := s.Record(context.Background(), Record{
		FromToken:     "SOL",
		ToToken:       "USDC",
		FromAmount:    1,
		ToAmount:      169.42,
		WalletAddress: "owner111",
		TxSignature:   "sig111",
		Timestamp:     1756684800000,
	})
	assert.NoError(t, err)
}

func TestRecordSurfacesDatastoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	s := New(srv.URL, anonKey, zap.NewNop())
	err := s.Record(context.Background(), Record{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStore)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestListFiltersAndOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/swap_transactions", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "eq.owner111", q.Get("wallet_address"))
		assert.Equal(t, "timestamp.desc", q.Get("order"))

		json.NewEncoder(w).Encode([]Record{
			{ID: "b", FromToken: "USDC", ToToken: "SOL", Timestamp: 2000},
			{ID: "a", FromToken: "SOL", ToToken: "USDC", Timestamp: 1000},
		})
	}))
	defer srv.Close()

	s := New(srv.URL, anonKey, zap.NewNop())
	recs, err := s.List(context.Background(), "owner111")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].ID, "server ordering preserved")
}

func TestListEmptyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := New(srv.URL, anonKey, zap.NewNop())
	recs, err := s.List(context.Background(), "owner111")
	require.NoError(t, err)
	assert.Empty(t, recs, "empty history is a valid result, not an error")
}

func TestListMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	s := New(srv.URL, anonKey, zap.NewNop())
	_, err := s.List(context.Background(), "owner111")
	assert.ErrorIs(t, err, types.ErrStore)
}
