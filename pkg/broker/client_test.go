package broker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

func TestClient_CreateOrderRequest(t *testing.T) {
	var captured struct {
		method string
		path   string
		auth   string
		body   gjson.Result
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.body = gjson.ParseBytes(body)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"orderFillTransaction": map[string]interface{}{
				"tradeOpened": map[string]interface{}{"tradeID": "101"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "acct-1", "secret")
	resp, err := client.CreateOrder(context.Background(), "EUR_USD", common.OrderBuy,
		fixed.New(1000, 0), fixed.MustFromString("1.0980"), fixed.MustFromString("1.1040"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/v3/accounts/acct-1/orders", captured.path)
	assert.Equal(t, "Bearer secret", captured.auth)
	assert.Equal(t, "MARKET", captured.body.Get("order.type").String())
	assert.Equal(t, "EUR_USD", captured.body.Get("order.instrument").String())
	assert.Equal(t, "1000", captured.body.Get("order.units").String())
	assert.Equal(t, "1.0980", captured.body.Get("order.stopLossOnFill.price").String())
	assert.Equal(t, "1.1040", captured.body.Get("order.takeProfitOnFill.price").String())

	assert.False(t, resp.IsError())
	assert.Equal(t, int64(101), resp.OpenedTradeID())
}

func TestClient_SellNegatesUnits(t *testing.T) {
	var units string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		units = gjson.GetBytes(body, "order.units").String()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "acct-1", "secret")
	_, err := client.CreateOrder(context.Background(), "EUR_USD", common.OrderSell,
		fixed.New(1000, 0), fixed.Zero, fixed.Zero)
	require.NoError(t, err)

	assert.Equal(t, "-1000", units)
}

func TestClient_ZeroProtectionOmitted(t *testing.T) {
	var body gjson.Result
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = gjson.ParseBytes(raw)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "acct-1", "secret")
	_, err := client.CreateOrder(context.Background(), "EUR_USD", common.OrderBuy,
		fixed.New(1000, 0), fixed.Zero, fixed.Zero)
	require.NoError(t, err)

	assert.False(t, body.Get("order.stopLossOnFill").Exists())
	assert.False(t, body.Get("order.takeProfitOnFill").Exists())
}

func TestClient_CloseTradeRequest(t *testing.T) {
	var captured struct {
		method string
		path   string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		_, _ = w.Write([]byte(`{"orderFillTransaction": {}}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "acct-1", "secret")
	resp, err := client.CloseTrade(context.Background(), 77)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, captured.method)
	assert.Equal(t, "/v3/accounts/acct-1/trades/77/close", captured.path)
	assert.False(t, resp.IsError())
	assert.Equal(t, int64(0), resp.OpenedTradeID())
}

func TestClient_RejectionIsResponseNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorCode": "TRADE_DOESNT_EXIST", "errorMessage": "The trade specified does not exist"}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "acct-1", "secret")
	resp, err := client.CloseTrade(context.Background(), 404)
	require.NoError(t, err)

	assert.True(t, resp.IsError())
	assert.Equal(t, ErrCodeTradeDoesntExist, resp.ErrorCode())
	assert.Equal(t, "The trade specified does not exist", resp.ErrorMessage())
}

func TestClient_TransportFailureIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(zap.NewNop(), server.URL, "acct-1", "secret")
	_, err := client.CloseTrade(context.Background(), 1)
	assert.Error(t, err)
}

func TestClient_Candles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/instruments/EUR_USD/candles", r.URL.Path)
		assert.Equal(t, "M1", r.URL.Query().Get("granularity"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{
			"candles": [
				{"complete": true, "time": "2024-06-03T12:00:00.000000000Z", "volume": 120,
				 "bid": {"o": "1.1000", "h": "1.1010", "l": "1.0990", "c": "1.1005"}},
				{"complete": false, "time": "2024-06-03T12:01:00.000000000Z", "volume": 3,
				 "bid": {"o": "1.1005", "h": "1.1006", "l": "1.1004", "c": "1.1005"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), server.URL, "acct-1", "secret")
	bars, err := client.Candles(context.Background(), "EUR_USD", "M1", 2, time.Minute)
	require.NoError(t, err)

	// The incomplete candle is skipped.
	require.Len(t, bars, 1)
	bar := bars[0]
	assert.Equal(t, "EUR_USD", bar.Symbol)
	assert.True(t, bar.Close.Eq(fixed.MustFromString("1.1005")))
	assert.True(t, bar.Volume.Eq(fixed.New(120, 0)))
	assert.Equal(t, time.Minute, bar.Period)
}

func TestResponse_AbsentFieldsReadAsZero(t *testing.T) {
	resp := ParseResponse([]byte(`{}`))

	assert.False(t, resp.IsError())
	assert.Equal(t, "", resp.ErrorCode())
	assert.Equal(t, int64(0), resp.OpenedTradeID())
}
