package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/datasource"
	"github.com/openfx/tradebus/pkg/tools/bar"
	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

const componentName = "datasource.stream"

// Handler builds live bars from a broker tick stream. Each UpdateBars call
// drains whatever ticks have arrived since the last heartbeat; completed
// bars are stored and announced as market events.
type Handler struct {
	logger  *zap.Logger
	router  *bus.Router
	store   *datasource.Store
	builder *bar.Builder
	ticks   <-chan common.Tick

	completed []common.Bar
	closed    bool
}

func NewHandler(logger *zap.Logger, router *bus.Router, symbols []string, period time.Duration, ticks <-chan common.Tick) *Handler {
	h := &Handler{
		logger: logger,
		router: router,
		store:  datasource.NewStore(symbols),
		ticks:  ticks,
	}
	h.builder = bar.NewBuilder(period, bar.PriceModeBid, func(b common.Bar) {
		h.completed = append(h.completed, b)
	})
	return h
}

// Preload seeds the store with historical bars so strategies have context
// before the first live bar completes.
func (h *Handler) Preload(bars []common.Bar) {
	for _, b := range bars {
		h.store.Append(b)
	}
}

func (h *Handler) ShouldContinue() bool {
	return !h.closed
}

func (h *Handler) UpdateBars(_ context.Context) error {
	for {
		select {
		case tick, ok := <-h.ticks:
			if !ok {
				h.closed = true
				h.builder.Flush()
				return h.publish()
			}
			h.builder.OnTick(tick)
		default:
			return h.publish()
		}
	}
}

func (h *Handler) publish() error {
	for _, b := range h.completed {
		h.store.Append(b)
		if err := h.router.Post(bus.MarketEvent, common.Market{
			Source:      componentName,
			Symbol:      b.Symbol,
			ExecutionId: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			TimeStamp:   b.TimeStamp,
		}); err != nil {
			return err
		}
	}
	h.completed = h.completed[:0]

	if h.closed {
		return datasource.ErrExhausted
	}
	return nil
}

func (h *Handler) SymbolList() []string {
	return h.store.SymbolList()
}

func (h *Handler) HasBars(symbol string) bool {
	return h.store.HasBars(symbol)
}

func (h *Handler) LatestBarTime(symbol string) (time.Time, bool) {
	return h.store.LatestBarTime(symbol)
}

func (h *Handler) LatestBarValue(symbol string, field datasource.BarField) (fixed.Point, bool) {
	return h.store.LatestBarValue(symbol, field)
}
