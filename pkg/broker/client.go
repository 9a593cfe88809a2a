package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// API is the request boundary the execution layer talks to. In-contract
// broker errors come back inside the Response; a non-nil error means the
// transport itself failed.
type API interface {
	CreateOrder(ctx context.Context, symbol string, direction common.OrderDirection, quantity, stopLoss, takeProfit fixed.Point) (Response, error)
	CloseTrade(ctx context.Context, tradeID int64) (Response, error)
}

// Client is a REST client for an OANDA-style v20 endpoint.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	accountID  string
	token      string
}

func NewClient(logger *zap.Logger, baseURL, accountID, accessToken string) *Client {
	return &Client{
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   baseURL,
		accountID: accountID,
		token:     accessToken,
	}
}

func (c *Client) CreateOrder(ctx context.Context, symbol string, direction common.OrderDirection, quantity, stopLoss, takeProfit fixed.Point) (Response, error) {
	units := quantity
	if direction == common.OrderSell {
		units = quantity.Neg()
	}

	order := map[string]interface{}{
		"type":         "MARKET",
		"instrument":   symbol,
		"units":        units.String(),
		"timeInForce":  "FOK",
		"positionFill": "DEFAULT",
	}
	if !stopLoss.IsZero() {
		order["stopLossOnFill"] = map[string]string{"price": stopLoss.String()}
	}
	if !takeProfit.IsZero() {
		order["takeProfitOnFill"] = map[string]string{"price": takeProfit.String()}
	}

	url := fmt.Sprintf("%s/v3/accounts/%s/orders", c.baseURL, c.accountID)
	return c.do(ctx, http.MethodPost, url, map[string]interface{}{"order": order})
}

func (c *Client) CloseTrade(ctx context.Context, tradeID int64) (Response, error) {
	url := fmt.Sprintf("%s/v3/accounts/%s/trades/%d/close", c.baseURL, c.accountID, tradeID)
	return c.do(ctx, http.MethodPut, url, map[string]interface{}{"units": "ALL"})
}

// Candles fetches the most recent bid-side candles for a symbol, used to
// preload history before live trading starts.
func (c *Client) Candles(ctx context.Context, symbol, granularity string, count int, period time.Duration) ([]common.Bar, error) {
	url := fmt.Sprintf("%s/v3/instruments/%s/candles?granularity=%s&count=%d&price=B",
		c.baseURL, symbol, granularity, count)

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("broker rejected candle request: %s %q", resp.ErrorCode(), resp.ErrorMessage())
	}

	var bars []common.Bar
	resp.Raw().Get("candles").ForEach(func(_, candle gjson.Result) bool {
		if !candle.Get("complete").Bool() {
			return true
		}
		bars = append(bars, common.Bar{
			Symbol:    symbol,
			TimeStamp: candle.Get("time").Time(),
			Period:    period,
			Open:      fixed.MustFromString(candle.Get("bid.o").String()),
			High:      fixed.MustFromString(candle.Get("bid.h").String()),
			Low:       fixed.MustFromString(candle.Get("bid.l").String()),
			Close:     fixed.MustFromString(candle.Get("bid.c").String()),
			Volume:    fixed.New(candle.Get("volume").Int(), 0),
		})
		return true
	})
	return bars, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload interface{}) (Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Response{}, fmt.Errorf("unable to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Response{}, fmt.Errorf("unable to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("broker request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("unable to read broker response: %w", err)
	}

	c.logger.Debug("broker response",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode))

	// Rejections arrive as JSON bodies with errorCode/errorMessage on a
	// non-2xx status. Both shapes go back to the caller as a Response.
	return ParseResponse(raw), nil
}
