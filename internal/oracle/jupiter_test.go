package oracle

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(serverURL string) *JupiterClient {
	return NewJupiterClient(serverURL, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPricesPartialResult(t *testing.T) {
	known := solana.NewWallet().PublicKey()
	unknown := solana.NewWallet().PublicKey()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("ids"), known.String())
		w.Header().Set("Content-Type", "application/json")
		// The API returns null entries for unknown mints.
		_, _ = w.Write([]byte(`{"data":{"` + known.String() + `":{"id":"` + known.String() + `","price":"149.73"},"` + unknown.String() + `":null}}`))
	}))
	defer server.Close()

	prices, err := testClient(server.URL).Prices(context.Background(), []solana.PublicKey{known, unknown})
	require.NoError(t, err)

	require.Len(t, prices, 1)
	assert.Equal(t, "149.73", prices[known].String())
	_, ok := prices[unknown]
	assert.False(t, ok)
}

func TestPricesUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Prices(context.Background(), []solana.PublicKey{solana.NewWallet().PublicKey()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPricesNoMints(t *testing.T) {
	prices, err := testClient("http://unreachable.invalid").Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}
