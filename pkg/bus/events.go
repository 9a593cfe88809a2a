package bus

type EventId uint8

const (
	MarketEvent EventId = iota
	SignalEvent
	OrderEvent
	FillEvent
	ClosePendingOrdersEvent
)

func (id EventId) String() string {
	switch id {
	case MarketEvent:
		return "MARKET"
	case SignalEvent:
		return "SIGNAL"
	case OrderEvent:
		return "ORDER"
	case FillEvent:
		return "FILL"
	case ClosePendingOrdersEvent:
		return "CLOSE_PENDING_ORDERS"
	default:
		return "UNKNOWN"
	}
}
