package common

import (
	"fmt"
	"time"

	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// Fill confirms that an order was executed at the broker. FillCost and
// Commission default to zero when the broker does not report them. TradeId is
// the broker-assigned identifier of the opened trade, zero when absent, for
// example on an exit.
type Fill struct {
	TimeIndex  time.Time      `json:"time_index"`
	Symbol     string         `json:"symbol"`
	Exchange   string         `json:"exchange"`
	Quantity   fixed.Point    `json:"quantity"`
	Direction  OrderDirection `json:"direction"`
	FillCost   fixed.Point    `json:"fill_cost"`
	Commission fixed.Point    `json:"commission"`
	TradeId    int64          `json:"trade_id,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

func (f Fill) String() string {
	return fmt.Sprintf("Fill: TimeIndex: %s, Symbol: %s, Exchange: %s, Quantity: %s, Direction: %s, FillCost: %s",
		f.TimeIndex.Format(time.RFC3339), f.Symbol, f.Exchange, f.Quantity, f.Direction, f.FillCost)
}
