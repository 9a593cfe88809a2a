package common

import (
	"time"

	"github.com/openfx/tradebus/pkg/utility/fixed"
)

type PositionDirection uint8

const (
	PositionOut PositionDirection = iota
	PositionLong
	PositionShort
)

func (d PositionDirection) String() string {
	switch d {
	case PositionOut:
		return "OUT"
	case PositionLong:
		return "LONG"
	case PositionShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Position is the portfolio's view of one symbol. A position cycles OUT →
// LONG/SHORT → OUT for the run's duration; it is never destroyed. TradeId is
// set exactly when the direction is not OUT.
type Position struct {
	Symbol     string            `json:"symbol"`
	Direction  PositionDirection `json:"direction"`
	TradeId    int64             `json:"trade_id,omitempty"`
	Quantity   fixed.Point       `json:"quantity"`
	EntryPrice fixed.Point       `json:"entry_price"`
	EntryTime  time.Time         `json:"entry_time"`
}

func (p Position) IsOpen() bool  { return p.Direction != PositionOut }
func (p Position) IsLong() bool  { return p.Direction == PositionLong }
func (p Position) IsShort() bool { return p.Direction == PositionShort }
