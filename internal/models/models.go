package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type DeliveryAddress struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is owned by the order-management subsystem. The webhook pipeline only
// reads it and applies targeted payment-field updates.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNo         int64           `json:"order_no"`
	UserID          uuid.UUID       `json:"user_id"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	PaymentID       *uuid.UUID      `json:"payment_id,omitempty"`
	TotalValue      decimal.Decimal `json:"total_value"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	DeliveryAddress DeliveryAddress `json:"delivery_address"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ExpectedCharge is the amount the customer should have been billed:
// the discounted final amount when a discount was applied, otherwise the
// order total.
func (o *Order) ExpectedCharge() decimal.Decimal {
	if o.DiscountAmount.IsPositive() {
		return o.FinalAmount
	}
	return o.TotalValue
}

type Customer struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
}

// Payment records one settled provider payment. ProviderPaymentID carries a
// unique index; the row is append-only after creation.
type Payment struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	OrderID           uuid.UUID       `json:"order_id"`
	ProviderPaymentID string          `json:"provider_payment_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Customer          Customer        `json:"customer"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}
