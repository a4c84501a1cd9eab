package domain

var orderStatusTransitions = map[string]map[string]struct{}{
	OrderStatusPending: {
		OrderStatusPlaced:    {},
		OrderStatusCancelled: {},
	},
	OrderStatusPlaced: {
		OrderStatusScheduleMeet: {},
		OrderStatusProcessing:   {},
		OrderStatusCancelled:    {},
	},
	OrderStatusScheduleMeet: {
		OrderStatusProcessing: {},
		OrderStatusCancelled:  {},
	},
	OrderStatusProcessing: {
		OrderStatusShipped:   {},
		OrderStatusCancelled: {},
	},
	OrderStatusShipped: {
		OrderStatusDelivered: {},
	},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransitionOrderStatus reports whether an order may move between the two
// statuses. The webhook pipeline only ever requests pending -> placed; the
// full table exists so collaborators share one source of truth.
func CanTransitionOrderStatus(current, next string) bool {
	nextStates, ok := orderStatusTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}
