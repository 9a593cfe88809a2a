package strategy

import (
	"context"

	"github.com/openfx/tradebus/pkg/common"
)

// Strategy maps each market tick to at most one signal per symbol.
type Strategy interface {
	CalculateSignals(ctx context.Context, market common.Market)
}

// PositionView is the portfolio surface strategies branch on.
type PositionView interface {
	CurrentPosition(symbol string) (common.Position, bool)
}
