package domain

// transitionTable is the single authority on legal order status edges.
// The admin console derives its action menus from AllowedNext so the UI can
// never drift from the engine.
var transitionTable = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment:  {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:            {OrderStatusPendingShipment, OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusPendingShipment: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:         {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:       {OrderStatusCompleted},
	OrderStatusCompleted:       {},
	OrderStatusCancelled:       {},
	OrderStatusRefunded:        {},
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns *IllegalTransitionError for any edge missing from
// the table, nil otherwise.
func CheckTransition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return &IllegalTransitionError{From: from, To: to}
	}
	return nil
}

// AllowedNext returns the legal target statuses for the given status. The
// returned slice is a copy.
func AllowedNext(from OrderStatus) []OrderStatus {
	next := transitionTable[from]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// Terminal reports whether no transition leaves the given status.
func Terminal(status OrderStatus) bool {
	return len(transitionTable[status]) == 0
}

// RefundRequired reports whether cancelling an order in the given status must
// reverse a captured payment first.
func RefundRequired(status OrderStatus) bool {
	return status == OrderStatusPaid || status == OrderStatusPendingShipment
}

// AllStatuses lists every known status, in lifecycle order.
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPendingPayment,
		OrderStatusPaid,
		OrderStatusPendingShipment,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}
}
