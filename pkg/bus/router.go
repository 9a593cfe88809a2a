package bus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/common"
)

var ErrCapacityReached = errors.New("event capacity reached")

type event struct {
	id   EventId
	data interface{}
}

// Router is the shared FIFO event queue of one run. It is created once and
// handed to every component; there is no ambient instance. All dispatch
// happens on the caller of Drain, components only Post.
type Router struct {
	logger *zap.Logger
	events chan event

	// Handlers
	OnMarket             MarketEventHandler
	OnSignal             SignalEventHandler
	OnOrder              OrderEventHandler
	OnFill               FillEventHandler
	OnClosePendingOrders ClosePendingOrdersEventHandler

	// Statistics
	runTime       atomic.Int64
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
	signalCount   atomic.Uint64
	orderCount    atomic.Uint64
	fillCount     atomic.Uint64
}

func NewRouter(logger *zap.Logger, eventCapacity int) *Router {
	return &Router{
		logger: logger,
		events: make(chan event, eventCapacity),
	}
}

// Post enqueues without blocking. A full queue is an error, not a stall.
func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return ErrCapacityReached
	}
}

// Drain pops and dispatches events in FIFO order until the queue is empty.
// An empty queue ends the drain cycle, it is not an error. Dispatch failures
// are logged and counted but never stop the drain.
func (r *Router) Drain(ctx context.Context) {
	start := time.Now()
	defer func() {
		r.runTime.Add(int64(time.Since(start)))
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.events:
			r.dispatchCount.Add(1)
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails.Add(1)
				r.logger.Warn("dispatch failed",
					zap.Error(err),
					zap.Stringer("event_id", ev.id))
			}
		default:
			return
		}
	}
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case MarketEvent:
		market, ok := ev.data.(common.Market)
		if !ok {
			return errors.New("invalid type assertion for market event")
		}
		if r.OnMarket != nil {
			r.OnMarket(ctx, market)
		}
	case SignalEvent:
		signal, ok := ev.data.(common.Signal)
		if !ok {
			return errors.New("invalid type assertion for signal event")
		}
		r.signalCount.Add(1)
		if r.OnSignal != nil {
			r.OnSignal(ctx, signal)
		}
	case OrderEvent:
		order, ok := ev.data.(common.Order)
		if !ok {
			return errors.New("invalid type assertion for order event")
		}
		r.orderCount.Add(1)
		if r.OnOrder != nil {
			r.OnOrder(ctx, order)
		}
	case FillEvent:
		fill, ok := ev.data.(common.Fill)
		if !ok {
			return errors.New("invalid type assertion for fill event")
		}
		r.fillCount.Add(1)
		if r.OnFill != nil {
			r.OnFill(ctx, fill)
		}
	case ClosePendingOrdersEvent:
		cpo, ok := ev.data.(common.ClosePendingOrders)
		if !ok {
			return errors.New("invalid type assertion for close pending orders event")
		}
		if r.OnClosePendingOrders != nil {
			r.OnClosePendingOrders(ctx, cpo)
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}

func (r *Router) Statistics() Statistics {
	runTime := time.Duration(r.runTime.Load())
	throughput := 0.0
	if runTime > 0 {
		throughput = float64(r.dispatchCount.Load()) / runTime.Seconds()
	}
	return Statistics{
		RunTime:       runTime,
		PostCount:     r.postCount.Load(),
		PostFails:     r.postFails.Load(),
		DispatchCount: r.dispatchCount.Load(),
		DispatchFails: r.dispatchFails.Load(),
		Signals:       r.signalCount.Load(),
		Orders:        r.orderCount.Load(),
		Fills:         r.fillCount.Load(),
		Throughput:    throughput,
	}
}
