package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOrderStatus(t *testing.T) {
	cases := []struct {
		current string
		next    string
		want    bool
	}{
		{OrderStatusPending, OrderStatusPlaced, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPlaced, OrderStatusPlaced, false},
		{OrderStatusPlaced, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusPlaced, false},
		{OrderStatusCancelled, OrderStatusPlaced, false},
		{"unknown", OrderStatusPlaced, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransitionOrderStatus(tc.current, tc.next), "%s -> %s", tc.current, tc.next)
	}
}
