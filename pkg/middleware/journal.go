package middleware

import (
	"context"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/journal"
)

// Journal decorates handlers so that every dispatched event lands in the
// events log, rendered through the event's String method.
type Journal struct {
	log *journal.Logger
}

func NewJournal(log *journal.Logger) *Journal {
	return &Journal{
		log: log,
	}
}

func (j *Journal) WithMarket(handler bus.MarketEventHandler) bus.MarketEventHandler {
	return func(ctx context.Context, market common.Market) {
		j.log.Write(market.String())
		handler(ctx, market)
	}
}

func (j *Journal) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		j.log.Write(signal.String())
		handler(ctx, signal)
	}
}

func (j *Journal) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, order common.Order) {
		j.log.Write(order.String())
		handler(ctx, order)
	}
}

func (j *Journal) WithFill(handler bus.FillEventHandler) bus.FillEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		j.log.Write(fill.String())
		handler(ctx, fill)
	}
}

func (j *Journal) WithClosePendingOrders(handler bus.ClosePendingOrdersEventHandler) bus.ClosePendingOrdersEventHandler {
	return func(ctx context.Context, cpo common.ClosePendingOrders) {
		j.log.Write(cpo.String())
		handler(ctx, cpo)
	}
}
