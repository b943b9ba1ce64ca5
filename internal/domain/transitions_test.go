package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	legal := map[OrderStatus][]OrderStatus{
		OrderStatusPendingPayment:  {OrderStatusPaid, OrderStatusCancelled},
		OrderStatusPaid:            {OrderStatusPendingShipment, OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
		OrderStatusPendingShipment: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
		OrderStatusShipped:         {OrderStatusDelivered, OrderStatusRefunded},
		OrderStatusDelivered:       {OrderStatusCompleted},
		OrderStatusCompleted:       {},
		OrderStatusCancelled:       {},
		OrderStatusRefunded:        {},
	}

	// exhaustive: every pair not listed above must be rejected.
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := false
			for _, next := range legal[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_NoSkippingStates(t *testing.T) {
	assert.False(t, CanTransition(OrderStatusPendingPayment, OrderStatusShipped))
	assert.False(t, CanTransition(OrderStatusPendingPayment, OrderStatusDelivered))
	assert.False(t, CanTransition(OrderStatusPaid, OrderStatusCompleted))
}

func TestCanTransition_NoBackwardEdges(t *testing.T) {
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusShipped))
	assert.False(t, CanTransition(OrderStatusShipped, OrderStatusPaid))
	assert.False(t, CanTransition(OrderStatusPaid, OrderStatusPendingPayment))
}

func TestCanTransition_RefundWindow(t *testing.T) {
	// refunds stop at delivery; a delivered order can only complete.
	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusRefunded))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusRefunded))
	assert.False(t, CanTransition(OrderStatusCompleted, OrderStatusRefunded))
}

func TestCheckTransition(t *testing.T) {
	require.NoError(t, CheckTransition(OrderStatusPendingPayment, OrderStatusPaid))

	err := CheckTransition(OrderStatusCancelled, OrderStatusPaid)
	require.Error(t, err)

	var illegal *IllegalTransitionError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, OrderStatusCancelled, illegal.From)
	assert.Equal(t, OrderStatusPaid, illegal.To)
}

func TestTerminal(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded} {
		assert.True(t, Terminal(status), "%s", status)
	}
	for _, status := range []OrderStatus{OrderStatusPendingPayment, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered} {
		assert.False(t, Terminal(status), "%s", status)
	}
}

func TestAllowedNext_ReturnsCopy(t *testing.T) {
	next := AllowedNext(OrderStatusPaid)
	require.NotEmpty(t, next)

	next[0] = OrderStatusCompleted
	assert.NotContains(t, AllowedNext(OrderStatusPaid), OrderStatusCompleted)
}

func TestRefundRequired(t *testing.T) {
	assert.True(t, RefundRequired(OrderStatusPaid))
	assert.True(t, RefundRequired(OrderStatusPendingShipment))
	assert.False(t, RefundRequired(OrderStatusPendingPayment))
	assert.False(t, RefundRequired(OrderStatusShipped))
}
