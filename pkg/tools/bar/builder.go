package bar

import (
	"time"

	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

type PriceMode int

const (
	PriceModeAsk PriceMode = iota
	PriceModeBid
	PriceModeMid
)

// Builder aggregates ticks into period bars. A bar completes when a tick
// arrives at or past the end of its window; the completed bar is handed to
// the callback before the new bar starts.
type Builder struct {
	period     time.Duration
	mode       PriceMode
	onComplete func(common.Bar)

	inConstruction map[string]*common.Bar
}

func NewBuilder(period time.Duration, mode PriceMode, onComplete func(common.Bar)) *Builder {
	return &Builder{
		period:         period,
		mode:           mode,
		onComplete:     onComplete,
		inConstruction: make(map[string]*common.Bar),
	}
}

func (b *Builder) OnTick(tick common.Tick) {
	price := b.price(tick)

	current, ok := b.inConstruction[tick.Symbol]
	if ok && !tick.TimeStamp.Before(current.TimeStamp.Add(b.period)) {
		b.onComplete(*current)
		ok = false
	}

	if !ok {
		start := tick.TimeStamp.Truncate(b.period)
		b.inConstruction[tick.Symbol] = &common.Bar{
			Symbol:    tick.Symbol,
			TimeStamp: start,
			Period:    b.period,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    fixed.One,
		}
		return
	}

	if price.Gt(current.High) {
		current.High = price
	}
	if price.Lt(current.Low) {
		current.Low = price
	}
	current.Close = price
	current.Volume = current.Volume.Add(fixed.One)
}

// Flush completes every partial bar, for use at stream shutdown.
func (b *Builder) Flush() {
	for symbol, current := range b.inConstruction {
		b.onComplete(*current)
		delete(b.inConstruction, symbol)
	}
}

func (b *Builder) price(tick common.Tick) fixed.Point {
	switch b.mode {
	case PriceModeAsk:
		return tick.Ask
	case PriceModeBid:
		return tick.Bid
	default:
		return tick.Mid()
	}
}
