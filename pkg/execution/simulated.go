package execution

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

const simulatedComponentName = "execution.simulated"

// SimulatedHandler fills every market order immediately at the latest close.
// Trade ids are assigned locally and a flat per-unit commission may be
// charged, which is all a deterministic backtest needs.
type SimulatedHandler struct {
	logger *zap.Logger
	bars   datasource.Handler
	router *bus.Router

	commissionPerUnit fixed.Point
	tradeIdCounter    int64
}

func NewSimulatedHandler(logger *zap.Logger, bars datasource.Handler, router *bus.Router, commissionPerUnit fixed.Point) *SimulatedHandler {
	return &SimulatedHandler{
		logger:            logger,
		bars:              bars,
		router:            router,
		commissionPerUnit: commissionPerUnit,
	}
}

func (h *SimulatedHandler) ExecuteOrder(_ context.Context, order common.Order) {
	if order.Type != common.OrderTypeMarket {
		h.logger.Warn("unsupported order type, dropping order", zap.Stringer("order", order))
		return
	}

	var tradeId int64
	if order.Direction != common.OrderExit {
		h.tradeIdCounter++
		tradeId = h.tradeIdCounter
	}

	fillCost, _ := h.bars.LatestBarValue(order.Symbol, datasource.BarClose)
	timeIndex, ok := h.bars.LatestBarTime(order.Symbol)
	if !ok {
		timeIndex = time.Now().UTC()
	}

	fill := common.Fill{
		TimeIndex:   timeIndex,
		Symbol:      order.Symbol,
		Exchange:    exchangeName,
		Quantity:    order.Quantity,
		Direction:   order.Direction,
		FillCost:    fillCost,
		Commission:  h.commissionPerUnit.Mul(order.Quantity),
		TradeId:     tradeId,
		Source:      simulatedComponentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   time.Now().UTC(),
	}
	if err := h.router.Post(bus.FillEvent, fill); err != nil {
		h.logger.Warn("unable to post fill", zap.Error(err), zap.Stringer("fill", fill))
	}
}

func (h *SimulatedHandler) UpdateRestingOrders(_ context.Context, _ common.Market) {}

func (h *SimulatedHandler) ClearRestingOrders(_ context.Context, _ common.ClosePendingOrders) {}
