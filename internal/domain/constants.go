package domain

// Order lifecycle statuses. Only pending -> placed is driven by the webhook
// pipeline; the rest belong to order management and fulfillment flows.
const (
	OrderStatusPending      = "pending"
	OrderStatusPlaced       = "placed"
	OrderStatusScheduleMeet = "scheduleMeet"
	OrderStatusProcessing   = "processing"
	OrderStatusShipped      = "shipped"
	OrderStatusDelivered    = "delivered"
	OrderStatusCancelled    = "cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"

	// Provider-side terminal status for a completed payment.
	ProviderPaymentCompleted = "COMPLETED"

	RoleUser  = "user"
	RoleAdmin = "admin"
)
