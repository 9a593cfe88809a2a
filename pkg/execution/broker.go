package execution

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/broker"
	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/journal"
	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

const (
	componentName = "execution.broker"
	exchangeName  = "FOREX"
)

// BrokerHandler executes market orders against a live broker. It is the only
// component allowed to repair local state: when the broker reports that an
// exited trade no longer exists, the trade was already closed on the broker
// side and a fill is synthesized so the portfolio converges.
type BrokerHandler struct {
	logger *zap.Logger
	api    broker.API
	router *bus.Router
	log    *journal.Logger
}

func NewBrokerHandler(logger *zap.Logger, api broker.API, router *bus.Router, log *journal.Logger) *BrokerHandler {
	return &BrokerHandler{
		logger: logger,
		api:    api,
		router: router,
		log:    log,
	}
}

func (h *BrokerHandler) ExecuteOrder(ctx context.Context, order common.Order) {
	if order.Type != common.OrderTypeMarket {
		h.logger.Warn("unsupported order type, dropping order", zap.Stringer("order", order))
		return
	}

	var resp broker.Response
	var err error
	if order.Direction == common.OrderExit {
		resp, err = h.api.CloseTrade(ctx, order.RelatedTradeId)
	} else {
		resp, err = h.api.CreateOrder(ctx, order.Symbol, order.Direction, order.Quantity, order.StopLoss, order.TakeProfit)
	}
	if err != nil {
		// Transport fault, outside the error-response contract. There is no
		// retry policy here; this terminates the run.
		h.logger.Panic("broker transport fault", zap.Error(err), zap.Stringer("order", order))
	}

	if resp.IsError() {
		h.handleError(order, resp)
		return
	}
	h.handleSuccess(order, resp)
}

func (h *BrokerHandler) handleSuccess(order common.Order, resp broker.Response) {
	tradeId := resp.OpenedTradeID()

	h.log.Writef("Executed the order with stopLoss=%10s, takeProfit=%10s",
		orDefault(order.StopLoss), orDefault(order.TakeProfit))

	h.postFill(order, tradeId)
}

// handleError covers both plain rejections and the reconciliation case. A
// TRADE_DOESNT_EXIST on an EXIT means the broker closed the position on its
// own before our exit arrived; exactly one fill is synthesized as if the
// exit had succeeded, then the error is logged as usual.
func (h *BrokerHandler) handleError(order common.Order, resp broker.Response) {
	errorCode := resp.ErrorCode()
	errorMessage := resp.ErrorMessage()

	if errorCode == broker.ErrCodeTradeDoesntExist && order.Direction == common.OrderExit {
		h.postFill(order, 0)
	}

	h.log.Writef("Error during executing the order: errorCode=%s, errorMessage=%q", errorCode, errorMessage)
	h.logger.Warn("broker rejected order",
		zap.String("error_code", errorCode),
		zap.String("error_message", errorMessage),
		zap.Stringer("order", order))
}

func (h *BrokerHandler) postFill(order common.Order, tradeId int64) {
	fill := common.Fill{
		TimeIndex:   time.Now().UTC(),
		Symbol:      order.Symbol,
		Exchange:    exchangeName,
		Quantity:    order.Quantity,
		Direction:   order.Direction,
		TradeId:     tradeId,
		Source:      componentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   time.Now().UTC(),
	}
	if err := h.router.Post(bus.FillEvent, fill); err != nil {
		h.logger.Warn("unable to post fill", zap.Error(err), zap.Stringer("fill", fill))
	}
}

// Stops and targets ride on order creation; there are no resting orders to
// manage locally.
func (h *BrokerHandler) UpdateRestingOrders(_ context.Context, _ common.Market) {}

func (h *BrokerHandler) ClearRestingOrders(_ context.Context, _ common.ClosePendingOrders) {}

func orDefault(p fixed.Point) string {
	if p.IsZero() {
		return "0.0"
	}
	return p.String()
}
