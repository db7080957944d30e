package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal/internal/exchange"
)

func TestGetPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"50000.12"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	price, err := client.GetPrice(context.Background(), "btcusdt")
	require.NoError(t, err)
	assert.Equal(t, 50000.12, price)
}

func TestGetPriceUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetPrice(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestGetPriceRejectsNonPositive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"0"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetPrice(context.Background(), "BTCUSDT")

	var decodeErr *exchange.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "price", decodeErr.Field)
}

func TestFetchFillsSignsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/myTrades", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
		assert.NotEmpty(t, r.URL.Query().Get("signature"))
		assert.NotEmpty(t, r.URL.Query().Get("timestamp"))
		w.Write([]byte(`[
			{"id":101,"symbol":"BTCUSDT","price":"50000","qty":"0.1","commission":"5","commissionAsset":"USDT","time":1767225600000,"isBuyer":true},
			{"id":102,"symbol":"BTCUSDT","price":"51000","qty":"0.1","commission":"5.1","commissionAsset":"USDT","time":1767229200000,"isBuyer":false}
		]`))
	}))
	defer server.Close()

	client := NewSignedClient("test-key", "test-secret", false)
	client.baseURL = server.URL

	fills, err := client.FetchFills(context.Background(), "BTC/USDT", 100)
	require.NoError(t, err)
	require.Len(t, fills, 2)

	assert.Equal(t, "101", fills[0].ExternalID)
	assert.Equal(t, "BUY", fills[0].Side)
	assert.Equal(t, 50000.0, fills[0].Price)
	assert.Equal(t, "SELL", fills[1].Side)
	assert.Equal(t, 5.1, fills[1].Fee)
}

func TestFetchFillsRejectsMalformedRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":101,"symbol":"BTCUSDT","price":"oops","qty":"0.1","time":1767225600000,"isBuyer":true}]`))
	}))
	defer server.Close()

	client := NewSignedClient("test-key", "test-secret", false)
	client.baseURL = server.URL

	_, err := client.FetchFills(context.Background(), "BTCUSDT", 100)
	var decodeErr *exchange.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "price", decodeErr.Field)
}

func TestFetchBalancesSkipsZeroRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/account", r.URL.Path)
		w.Write([]byte(`{"balances":[
			{"asset":"BTC","free":"1.5","locked":"0"},
			{"asset":"ETH","free":"0","locked":"0"},
			{"asset":"USDT","free":"100","locked":"25"}
		]}`))
	}))
	defer server.Close()

	client := NewSignedClient("test-key", "test-secret", false)
	client.baseURL = server.URL

	balances, err := client.FetchBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "BTC", balances[0].Asset)
	assert.Equal(t, 1.5, balances[0].Free)
	assert.Equal(t, 25.0, balances[1].Locked)
}

func TestValidateCredentialsSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":-2014,"msg":"API-key format invalid."}`))
	}))
	defer server.Close()

	client := NewSignedClient("bad", "bad", false)
	client.baseURL = server.URL

	err := client.ValidateCredentials(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API-key format invalid")
}
