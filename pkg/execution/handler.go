package execution

import (
	"context"

	"github.com/openfx/tradebus/pkg/common"
)

// Handler submits orders and keeps local state convergent with the broker.
// UpdateRestingOrders and ClearRestingOrders are hooks for resting-order
// management; implementations that delegate stops and targets to the broker
// leave them empty.
type Handler interface {
	ExecuteOrder(ctx context.Context, order common.Order)
	UpdateRestingOrders(ctx context.Context, market common.Market)
	ClearRestingOrders(ctx context.Context, cpo common.ClosePendingOrders)
}
