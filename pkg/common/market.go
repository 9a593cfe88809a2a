package common

import (
	"fmt"
	"time"

	"github.com/openfx/tradebus/pkg/utility"
)

// Market announces that new bar data exists for a symbol. It carries no bar
// values; consumers re-query the data handler for those.
type Market struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

func (m Market) String() string {
	return fmt.Sprintf("Market: Symbol: %s", m.Symbol)
}

// ClosePendingOrders asks the execution handler to cancel any resting limit
// or stop orders for a symbol.
type ClosePendingOrders struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

func (c ClosePendingOrders) String() string {
	return fmt.Sprintf("ClosePendingOrders: Symbol: %s", c.Symbol)
}
