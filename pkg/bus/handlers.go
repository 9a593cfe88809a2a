package bus

import (
	"context"

	"github.com/openfx/tradebus/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type MarketEventHandler = EventHandler[common.Market]
type SignalEventHandler = EventHandler[common.Signal]
type OrderEventHandler = EventHandler[common.Order]
type FillEventHandler = EventHandler[common.Fill]
type ClosePendingOrdersEventHandler = EventHandler[common.ClosePendingOrders]

// MergeHandlers fans a single event out to several components. Handlers run
// in argument order, which is how the market event's strategy → execution →
// portfolio ordering is pinned down.
func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
