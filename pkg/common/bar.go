package common

import (
	"time"

	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// Bar is one discrete price sample for a symbol. Bid-side OHLC, matching what
// the broker candle endpoints return for sizing and signal purposes.
type Bar struct {
	Symbol    string        `json:"symbol"`
	TimeStamp time.Time     `json:"ts"`
	Period    time.Duration `json:"period"`
	Open      fixed.Point   `json:"open"`
	High      fixed.Point   `json:"high"`
	Low       fixed.Point   `json:"low"`
	Close     fixed.Point   `json:"close"`
	Volume    fixed.Point   `json:"volume"`
}

// Tick is a single top-of-book quote from the broker price stream.
type Tick struct {
	Symbol    string      `json:"symbol"`
	TimeStamp time.Time   `json:"ts"`
	Bid       fixed.Point `json:"bid"`
	Ask       fixed.Point `json:"ask"`
}

func (t Tick) Mid() fixed.Point {
	return t.Bid.Add(t.Ask).DivInt(2)
}
