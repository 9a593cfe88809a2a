package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// ErrExhausted signals normal end of data. It terminates the run and is not
// an error condition.
var ErrExhausted = errors.New("data exhausted")

type BarField uint8

const (
	BarOpen BarField = iota
	BarHigh
	BarLow
	BarClose
	BarVolume
)

// Handler supplies bars and announces them on the bus. UpdateBars posts one
// market event per symbol with new data; consumers query the handler back
// for the actual values.
type Handler interface {
	ShouldContinue() bool
	UpdateBars(ctx context.Context) error
	SymbolList() []string
	HasBars(symbol string) bool
	LatestBarTime(symbol string) (time.Time, bool)
	LatestBarValue(symbol string, field BarField) (fixed.Point, bool)
}
