package common

import (
	"fmt"
	"time"

	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

type SignalType uint8

const (
	SignalLong SignalType = iota
	SignalShort
	SignalExit
)

func (s SignalType) String() string {
	switch s {
	case SignalLong:
		return "LONG"
	case SignalShort:
		return "SHORT"
	case SignalExit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// Signal is a qualitative trade intention produced by a strategy. The
// portfolio turns it into a sized order or drops it.
type Signal struct {
	StrategyId     int         `json:"strategy_id"`
	Symbol         string      `json:"symbol"`
	BarTime        time.Time   `json:"bar_time"`
	GeneratedTime  time.Time   `json:"generated_time"`
	Type           SignalType  `json:"type"`
	Strength       fixed.Point `json:"strength"`
	StopLoss       fixed.Point `json:"stop_loss,omitempty"`
	TakeProfit     fixed.Point `json:"take_profit,omitempty"`
	RelatedTradeId int64       `json:"related_trade_id,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

func (s Signal) String() string {
	return fmt.Sprintf("Signal: Symbol: %s, Type: %s, Strength: %s, BarTime: %s",
		s.Symbol, s.Type, s.Strength, s.BarTime.Format(time.RFC3339))
}
