package broker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// RetryAPI wraps an API with bounded exponential backoff on transport
// failures. In-contract broker rejections are responses, not errors, and are
// never retried.
type RetryAPI struct {
	logger   *zap.Logger
	api      API
	maxTries uint
}

func NewRetryAPI(logger *zap.Logger, api API, maxTries uint) *RetryAPI {
	return &RetryAPI{
		logger:   logger,
		api:      api,
		maxTries: maxTries,
	}
}

func (r *RetryAPI) CreateOrder(ctx context.Context, symbol string, direction common.OrderDirection, quantity, stopLoss, takeProfit fixed.Point) (Response, error) {
	return r.retry(ctx, "create_order", func() (Response, error) {
		return r.api.CreateOrder(ctx, symbol, direction, quantity, stopLoss, takeProfit)
	})
}

func (r *RetryAPI) CloseTrade(ctx context.Context, tradeID int64) (Response, error) {
	return r.retry(ctx, "close_trade", func() (Response, error) {
		return r.api.CloseTrade(ctx, tradeID)
	})
}

func (r *RetryAPI) retry(ctx context.Context, operation string, op func() (Response, error)) (Response, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (Response, error) {
		attempt++
		resp, err := op()
		if err != nil {
			r.logger.Warn("broker call failed",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return resp, err
	},
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     250 * time.Millisecond,
			RandomizationFactor: backoff.DefaultRandomizationFactor,
			Multiplier:          backoff.DefaultMultiplier,
			MaxInterval:         5 * time.Second,
		}),
		backoff.WithMaxTries(r.maxTries))
}
