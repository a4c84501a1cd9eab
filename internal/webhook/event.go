package webhook

import "time"

// Event types delivered by the payment provider.
const (
	EventTypePaymentUpdated = "payment.updated"
	EventTypeOrderUpdated   = "order.updated"
)

// Event is the provider webhook envelope. It is transient: built by the
// Verifier, consumed once by the event router, then discarded.
type Event struct {
	ID         string    `json:"event_id"`
	MerchantID string    `json:"merchant_id,omitempty"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
	Data       EventData `json:"data"`
}

type EventData struct {
	Type   string      `json:"type"`
	ID     string      `json:"id"`
	Object EventObject `json:"object"`
}

// EventObject holds the per-type payload variants. Exactly one field is set
// for a recognized event type; a nil field means the payload shape did not
// match the declared type.
type EventObject struct {
	Payment *Payment       `json:"payment,omitempty"`
	Order   *ProviderOrder `json:"order,omitempty"`
}

type Money struct {
	Amount   int64  `json:"amount"` // cents
	Currency string `json:"currency"`
}

// Payment is the provider-side payment object nested in payment.updated
// events and in order.updated payment lists.
type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id,omitempty"`
	Note        string `json:"note,omitempty"`
	CustomerID  string `json:"customer_id,omitempty"`
	BuyerEmail  string `json:"buyer_email_address,omitempty"`
	AmountMoney Money  `json:"amount_money"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ProviderOrder is the provider-side order object nested in order.updated
// events.
type ProviderOrder struct {
	ID       string            `json:"id"`
	State    string            `json:"state"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payments []Payment         `json:"payments,omitempty"`
}
