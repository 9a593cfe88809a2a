package portfolio

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/datasource"
	"github.com/openfx/tradebus/pkg/sizing"
	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

const componentName = "portfolio"

// EquitySample is one mark-to-market reading of the account.
type EquitySample struct {
	Time   time.Time
	Cash   fixed.Point
	Equity fixed.Point
}

// ClosedTrade records one completed round trip for the trade history file.
type ClosedTrade struct {
	Symbol     string
	Direction  common.PositionDirection
	TradeId    int64
	Quantity   fixed.Point
	EntryPrice fixed.Point
	ExitPrice  fixed.Point
	EntryTime  time.Time
	ExitTime   time.Time
	Profit     fixed.Point
	Commission fixed.Point
}

// Portfolio owns the position state machine. It is the only component that
// mutates positions; everything else observes them through CurrentPosition.
type Portfolio struct {
	logger *zap.Logger
	bars   datasource.Handler
	router *bus.Router
	sizer  sizing.Sizer

	cash      fixed.Point
	positions map[string]common.Position
	curve     []EquitySample
	trades    []ClosedTrade
}

func New(logger *zap.Logger, bars datasource.Handler, router *bus.Router, sizer sizing.Sizer, initialCapital fixed.Point) *Portfolio {
	positions := make(map[string]common.Position)
	for _, symbol := range bars.SymbolList() {
		positions[symbol] = common.Position{
			Symbol:    symbol,
			Direction: common.PositionOut,
		}
	}
	return &Portfolio{
		logger:    logger,
		bars:      bars,
		router:    router,
		sizer:     sizer,
		cash:      initialCapital,
		positions: positions,
	}
}

// CurrentPosition reports the open position for a symbol, if any. Strategies
// use it to branch between entry and exit logic.
func (p *Portfolio) CurrentPosition(symbol string) (common.Position, bool) {
	position, ok := p.positions[symbol]
	if !ok || !position.IsOpen() {
		return common.Position{}, false
	}
	return position, true
}

// UpdateSignal turns a signal into at most one order. Entry signals for a
// symbol that already has an open position are dropped, which is where the
// one-position-per-symbol invariant is enforced.
func (p *Portfolio) UpdateSignal(_ context.Context, signal common.Signal) {
	position := p.positions[signal.Symbol]

	if signal.Type != common.SignalExit && position.IsOpen() {
		p.logger.Debug("signal dropped, position already open",
			zap.String("symbol", signal.Symbol),
			zap.Stringer("signal_type", signal.Type),
			zap.Stringer("direction", position.Direction))
		return
	}

	if signal.Type == common.SignalExit && !position.IsOpen() {
		p.logger.Warn("exit signal for a flat symbol, ignoring",
			zap.String("symbol", signal.Symbol))
		return
	}

	price, _ := p.bars.LatestBarValue(signal.Symbol, datasource.BarClose)

	var direction common.OrderDirection
	var quantity fixed.Point
	switch signal.Type {
	case common.SignalLong:
		direction = common.OrderBuy
		quantity = p.sizer.Size(signal.Symbol, price)
	case common.SignalShort:
		direction = common.OrderSell
		quantity = p.sizer.Size(signal.Symbol, price)
	case common.SignalExit:
		direction = common.OrderExit
		quantity = position.Quantity
	}

	order := common.Order{
		Symbol:         signal.Symbol,
		Type:           common.OrderTypeMarket,
		Direction:      direction,
		Quantity:       quantity,
		StopLoss:       signal.StopLoss,
		TakeProfit:     signal.TakeProfit,
		RelatedTradeId: signal.RelatedTradeId,
		Source:         componentName,
		ExecutionId:    utility.GetExecutionID(),
		TraceID:        utility.CreateTraceID(),
		TimeStamp:      time.Now().UTC(),
	}

	if err := p.router.Post(bus.OrderEvent, order); err != nil {
		p.logger.Warn("unable to post order", zap.Error(err), zap.Stringer("order", order))
	}
}

// UpdateFill mutates position and cash state from an execution confirmation.
// An entry fill opens the position; an EXIT fill realizes profit and resets
// it to OUT.
func (p *Portfolio) UpdateFill(_ context.Context, fill common.Fill) {
	position := p.positions[fill.Symbol]

	switch fill.Direction {
	case common.OrderBuy, common.OrderSell:
		entryPrice := fill.FillCost
		if entryPrice.IsZero() {
			entryPrice, _ = p.bars.LatestBarValue(fill.Symbol, datasource.BarClose)
		}

		direction := common.PositionLong
		if fill.Direction == common.OrderSell {
			direction = common.PositionShort
		}

		p.positions[fill.Symbol] = common.Position{
			Symbol:     fill.Symbol,
			Direction:  direction,
			TradeId:    fill.TradeId,
			Quantity:   fill.Quantity,
			EntryPrice: entryPrice,
			EntryTime:  fill.TimeIndex,
		}

	case common.OrderExit:
		if !position.IsOpen() {
			p.logger.Warn("exit fill for a flat symbol, ignoring",
				zap.String("symbol", fill.Symbol))
			return
		}

		exitPrice := fill.FillCost
		if exitPrice.IsZero() {
			exitPrice, _ = p.bars.LatestBarValue(fill.Symbol, datasource.BarClose)
		}

		profit := p.unrealized(position, exitPrice)
		p.cash = p.cash.Add(profit)

		p.trades = append(p.trades, ClosedTrade{
			Symbol:     fill.Symbol,
			Direction:  position.Direction,
			TradeId:    position.TradeId,
			Quantity:   position.Quantity,
			EntryPrice: position.EntryPrice,
			ExitPrice:  exitPrice,
			EntryTime:  position.EntryTime,
			ExitTime:   fill.TimeIndex,
			Profit:     profit,
			Commission: fill.Commission,
		})

		p.positions[fill.Symbol] = common.Position{
			Symbol:    fill.Symbol,
			Direction: common.PositionOut,
		}
	}

	p.cash = p.cash.Sub(fill.Commission)
}

// UpdateTimeIndex marks open positions to the latest close and appends an
// equity-curve sample.
func (p *Portfolio) UpdateTimeIndex(_ context.Context, market common.Market) {
	equity := p.cash
	var latest time.Time

	for symbol, position := range p.positions {
		if barTime, ok := p.bars.LatestBarTime(symbol); ok && barTime.After(latest) {
			latest = barTime
		}
		if !position.IsOpen() {
			continue
		}
		price, ok := p.bars.LatestBarValue(symbol, datasource.BarClose)
		if !ok {
			continue
		}
		equity = equity.Add(p.unrealized(position, price))
	}

	if latest.IsZero() {
		latest = market.TimeStamp
	}

	p.curve = append(p.curve, EquitySample{
		Time:   latest,
		Cash:   p.cash,
		Equity: equity,
	})
}

func (p *Portfolio) unrealized(position common.Position, price fixed.Point) fixed.Point {
	diff := price.Sub(position.EntryPrice)
	if position.Direction == common.PositionShort {
		diff = diff.Neg()
	}
	return diff.Mul(position.Quantity)
}

func (p *Portfolio) Cash() fixed.Point {
	return p.cash
}

// Equity returns the latest mark-to-market equity, or cash when no sample
// exists yet.
func (p *Portfolio) Equity() fixed.Point {
	if len(p.curve) == 0 {
		return p.cash
	}
	return p.curve[len(p.curve)-1].Equity
}

func (p *Portfolio) EquityCurve() []EquitySample {
	return p.curve
}

func (p *Portfolio) Trades() []ClosedTrade {
	return p.trades
}
