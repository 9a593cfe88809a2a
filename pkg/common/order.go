package common

import (
	"fmt"
	"time"

	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

type OrderType uint8
type OrderDirection uint8

const (
	OrderTypeMarket OrderType = iota
)

const (
	OrderBuy OrderDirection = iota
	OrderSell
	OrderExit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MKT"
	default:
		return "UNKNOWN"
	}
}

func (d OrderDirection) String() string {
	switch d {
	case OrderBuy:
		return "BUY"
	case OrderSell:
		return "SELL"
	case OrderExit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// Order is a sized instruction for the execution handler. RelatedTradeId is
// required when the direction is EXIT, so the broker knows which trade to
// close.
type Order struct {
	Symbol         string         `json:"symbol"`
	Type           OrderType      `json:"type"`
	Direction      OrderDirection `json:"direction"`
	Quantity       fixed.Point    `json:"quantity"`
	StopLoss       fixed.Point    `json:"stop_loss,omitempty"`
	TakeProfit     fixed.Point    `json:"take_profit,omitempty"`
	RelatedTradeId int64          `json:"related_trade_id,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

func (o Order) String() string {
	return fmt.Sprintf("Order: Symbol: %s, Type: %s, Quantity: %s, Direction: %s",
		o.Symbol, o.Type, o.Quantity, o.Direction)
}
