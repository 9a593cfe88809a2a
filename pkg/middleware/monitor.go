package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
)

type MonitorFlags uint8

const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorMarkets
	MonitorSignals
	MonitorOrders
	MonitorFills
)

// Monitor mirrors selected events into the structured log.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) WithMarket(handler bus.MarketEventHandler) bus.MarketEventHandler {
	return func(ctx context.Context, market common.Market) {
		if m.flags&MonitorMarkets != 0 || m.flags&MonitorAll != 0 {
			m.logger.Debug("event", zap.Stringer("market", market))
		}
		handler(ctx, market)
	}
}

func (m *Monitor) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		if m.flags&MonitorSignals != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Stringer("signal", signal))
		}
		handler(ctx, signal)
	}
}

func (m *Monitor) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, order common.Order) {
		if m.flags&MonitorOrders != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Stringer("order", order))
		}
		handler(ctx, order)
	}
}

func (m *Monitor) WithFill(handler bus.FillEventHandler) bus.FillEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		if m.flags&MonitorFills != 0 || m.flags&MonitorAll != 0 {
			m.logger.Info("event", zap.Stringer("fill", fill))
		}
		handler(ctx, fill)
	}
}
