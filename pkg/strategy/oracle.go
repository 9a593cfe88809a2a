package strategy

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/datasource"
	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

const componentName = "strategy.oracle"

// DefaultPipSize is the standard pip for most currency pairs.
var DefaultPipSize = fixed.New(1, 4)

// Oracle takes its direction from an external SignalSource instead of any
// indicator. It still owns the full signal lifecycle: exit precedence,
// duplicate-entry suppression and stop/target placement.
type Oracle struct {
	logger    *zap.Logger
	bars      datasource.Handler
	positions PositionView
	router    *bus.Router
	source    SignalSource

	strategyId int
	pipSize    fixed.Point
	stopPips   int
	targetPips int

	// Last intended state per symbol, resynced to OUT whenever the
	// portfolio reports no position for the symbol.
	intended map[string]common.PositionDirection
}

func NewOracle(logger *zap.Logger, bars datasource.Handler, positions PositionView, router *bus.Router, source SignalSource, stopPips, targetPips int) *Oracle {
	intended := make(map[string]common.PositionDirection)
	for _, symbol := range bars.SymbolList() {
		intended[symbol] = common.PositionOut
	}
	return &Oracle{
		logger:     logger,
		bars:       bars,
		positions:  positions,
		router:     router,
		source:     source,
		strategyId: 1,
		pipSize:    DefaultPipSize,
		stopPips:   stopPips,
		targetPips: targetPips,
		intended:   intended,
	}
}

func (o *Oracle) CalculateSignals(_ context.Context, market common.Market) {
	symbol := market.Symbol

	if !o.bars.HasBars(symbol) {
		return
	}

	if _, open := o.positions.CurrentPosition(symbol); !open {
		o.intended[symbol] = common.PositionOut
	}

	barTime, _ := o.bars.LatestBarTime(symbol)
	barPrice, _ := o.bars.LatestBarValue(symbol, datasource.BarClose)

	token, err := o.readToken()
	if err != nil {
		o.logger.Warn("unable to read signal source", zap.Error(err))
		return
	}

	longSignal := token == "long"
	shortSignal := token == "short"
	exitSignal := token == "exit"

	if o.calculateExitSignals(symbol, barTime, longSignal, shortSignal, exitSignal) {
		return
	}
	o.calculateEntrySignals(symbol, barTime, barPrice, longSignal, shortSignal)
}

func (o *Oracle) readToken() (string, error) {
	if err := o.source.Reset(); err != nil {
		return "", err
	}
	return o.source.Next()
}

// Exit conditions run before entry conditions: an open position plus an
// opposing or explicit exit trigger yields exactly one EXIT signal and
// suppresses any entry for this tick.
func (o *Oracle) calculateExitSignals(symbol string, barTime time.Time, longSignal, shortSignal, exitSignal bool) bool {
	position, open := o.positions.CurrentPosition(symbol)
	if !open {
		return false
	}
	if (position.IsLong() && shortSignal) || (position.IsShort() && longSignal) || exitSignal {
		o.post(common.Signal{
			StrategyId:     o.strategyId,
			Symbol:         symbol,
			BarTime:        barTime,
			GeneratedTime:  time.Now().UTC(),
			Type:           common.SignalExit,
			Strength:       fixed.One,
			RelatedTradeId: position.TradeId,
		})
		o.intended[symbol] = common.PositionOut
		return true
	}
	return false
}

func (o *Oracle) calculateEntrySignals(symbol string, barTime time.Time, barPrice fixed.Point, longSignal, shortSignal bool) {
	if _, open := o.positions.CurrentPosition(symbol); open {
		return
	}

	var signalType common.SignalType
	switch {
	case longSignal:
		signalType = common.SignalLong
	case shortSignal:
		signalType = common.SignalShort
	default:
		return
	}

	stopLoss, takeProfit := o.protectionPrices(barPrice, signalType)

	o.post(common.Signal{
		StrategyId:    o.strategyId,
		Symbol:        symbol,
		BarTime:       barTime,
		GeneratedTime: time.Now().UTC(),
		Type:          signalType,
		Strength:      fixed.One,
		StopLoss:      stopLoss,
		TakeProfit:    takeProfit,
	})

	if signalType == common.SignalLong {
		o.intended[symbol] = common.PositionLong
	} else {
		o.intended[symbol] = common.PositionShort
	}
}

// protectionPrices offsets the current price by the configured pip distances,
// stop on the adverse side and target on the favorable one.
func (o *Oracle) protectionPrices(barPrice fixed.Point, signalType common.SignalType) (fixed.Point, fixed.Point) {
	var stopLoss, takeProfit fixed.Point

	if o.stopPips > 0 {
		offset := o.pipSize.MulInt(o.stopPips)
		if signalType == common.SignalLong {
			stopLoss = barPrice.Sub(offset)
		} else {
			stopLoss = barPrice.Add(offset)
		}
	}
	if o.targetPips > 0 {
		offset := o.pipSize.MulInt(o.targetPips)
		if signalType == common.SignalLong {
			takeProfit = barPrice.Add(offset)
		} else {
			takeProfit = barPrice.Sub(offset)
		}
	}
	return stopLoss, takeProfit
}

func (o *Oracle) post(signal common.Signal) {
	signal.Source = componentName
	signal.ExecutionId = utility.GetExecutionID()
	signal.TraceID = utility.CreateTraceID()
	signal.TimeStamp = time.Now().UTC()

	if err := o.router.Post(bus.SignalEvent, signal); err != nil {
		o.logger.Warn("unable to post signal", zap.Error(err), zap.Stringer("signal", signal))
	}
}
