package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metabolixmd/telehealth-api/internal/domain"
	"github.com/metabolixmd/telehealth-api/internal/webhook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentService(store *fakeStore, guard *fakeGuard) *PaymentService {
	return NewPaymentService(store, guard, NewMetadataResolver(nil, time.Second), nil)
}

func completedPayment(orderID, userID uuid.UUID, cents int64) *webhook.Payment {
	return &webhook.Payment{
		ID:          "pay-" + uuid.NewString(),
		Status:      domain.ProviderPaymentCompleted,
		Note:        "Order ID: " + orderID.String() + ", User ID: " + userID.String(),
		CustomerID:  "cust-1",
		BuyerEmail:  "pat@example.com",
		AmountMoney: webhook.Money{Amount: cents, Currency: "USD"},
	}
}

func TestProcessCompletedPaymentHappyPath(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	order, user := seedOrderAndUser(store, "49.99")
	svc := newPaymentService(store, guard)

	p := completedPayment(order.ID, user.ID, 4999)
	require.NoError(t, svc.ProcessCompletedPayment(context.Background(), p, nil))

	recorded, ok := store.payments[p.ID]
	require.True(t, ok)
	assert.Equal(t, order.ID, recorded.OrderID)
	assert.Equal(t, user.ID, recorded.UserID)
	assert.True(t, recorded.Amount.Equal(decimal.RequireFromString("49.99")))
	assert.Equal(t, domain.PaymentStatusPaid, recorded.Status)

	updated := store.orders[order.ID]
	assert.Equal(t, domain.OrderStatusPlaced, updated.Status)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)
	require.NotNil(t, updated.PaymentID)
	assert.Equal(t, recorded.ID, *updated.PaymentID)
	assert.NotNil(t, updated.PaymentDate)

	require.Len(t, store.audit, 1)
	assert.Equal(t, "payment_reconciled", store.audit[0].Action)
	assert.Equal(t, order.ID, store.audit[0].EntityID)

	assert.Equal(t, []string{p.ID}, guard.marked)
}

func TestProcessCompletedPaymentDiscountedOrder(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	order, user := seedOrderAndUser(store, "60.00")
	order.DiscountAmount = decimal.RequireFromString("10.01")
	order.FinalAmount = decimal.RequireFromString("49.99")
	svc := newPaymentService(store, guard)

	p := completedPayment(order.ID, user.ID, 4999)
	require.NoError(t, svc.ProcessCompletedPayment(context.Background(), p, nil))
	assert.Equal(t, domain.PaymentStatusPaid, store.orders[order.ID].PaymentStatus)
}

func TestProcessCompletedPaymentGuardDuplicate(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	order, user := seedOrderAndUser(store, "49.99")
	svc := newPaymentService(store, guard)

	p := completedPayment(order.ID, user.ID, 4999)
	guard.processed[p.ID] = true

	err := svc.ProcessCompletedPayment(context.Background(), p, nil)
	require.ErrorIs(t, err, ErrDuplicatePayment)
	assert.Empty(t, store.payments)
	assert.Equal(t, domain.PaymentStatusPending, store.orders[order.ID].PaymentStatus)
}

func TestProcessCompletedPaymentRaceLosesToUniqueIndex(t *testing.T) {
	// Cold guard, but a concurrent delivery already inserted the row.
	store := newFakeStore()
	guard := newFakeGuard()
	order, user := seedOrderAndUser(store, "49.99")
	svc := newPaymentService(store, guard)

	p := completedPayment(order.ID, user.ID, 4999)
	require.NoError(t, svc.ProcessCompletedPayment(context.Background(), p, nil))

	guard.processed = map[string]bool{}
	err := svc.ProcessCompletedPayment(context.Background(), p, nil)
	require.ErrorIs(t, err, ErrDuplicatePayment)
	assert.Len(t, store.audit, 1, "duplicate must not write a second audit row")
}

func TestProcessCompletedPaymentOrderAlreadyPaid(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	order, user := seedOrderAndUser(store, "49.99")
	order.PaymentStatus = domain.PaymentStatusPaid
	svc := newPaymentService(store, guard)

	err := svc.ProcessCompletedPayment(context.Background(), completedPayment(order.ID, user.ID, 4999), nil)
	require.ErrorIs(t, err, ErrDuplicatePayment)
	assert.Empty(t, store.payments, "payment insert must roll back with the order update")
}

func TestProcessCompletedPaymentAmountMismatch(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	order, user := seedOrderAndUser(store, "49.99")
	svc := newPaymentService(store, guard)

	err := svc.ProcessCompletedPayment(context.Background(), completedPayment(order.ID, user.ID, 9999), nil)
	require.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, store.payments)
	assert.Equal(t, domain.PaymentStatusPending, store.orders[order.ID].PaymentStatus)
	assert.Empty(t, guard.marked)
}

func TestProcessCompletedPaymentAmountWithinTolerance(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	order, user := seedOrderAndUser(store, "50.00")
	svc := newPaymentService(store, guard)

	require.NoError(t, svc.ProcessCompletedPayment(context.Background(), completedPayment(order.ID, user.ID, 4999), nil))
}

func TestProcessCompletedPaymentOrderNotFound(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	_, user := seedOrderAndUser(store, "49.99")
	svc := newPaymentService(store, guard)

	err := svc.ProcessCompletedPayment(context.Background(), completedPayment(uuid.New(), user.ID, 4999), nil)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestProcessCompletedPaymentUserNotFound(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	order, _ := seedOrderAndUser(store, "49.99")
	svc := newPaymentService(store, guard)

	err := svc.ProcessCompletedPayment(context.Background(), completedPayment(order.ID, uuid.New(), 4999), nil)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestProcessCompletedPaymentTxFailure(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	order, user := seedOrderAndUser(store, "49.99")
	store.txErr = errors.New("deadlock detected")
	svc := newPaymentService(store, guard)

	err := svc.ProcessCompletedPayment(context.Background(), completedPayment(order.ID, user.ID, 4999), nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDuplicatePayment)
	assert.Empty(t, store.payments)
	assert.Empty(t, guard.marked)
}

func TestProcessCompletedPaymentMissingMetadata(t *testing.T) {
	store := newFakeStore()
	guard := newFakeGuard()
	seedOrderAndUser(store, "49.99")
	svc := newPaymentService(store, guard)

	p := &webhook.Payment{
		ID:          "pay-nometa",
		Status:      domain.ProviderPaymentCompleted,
		AmountMoney: webhook.Money{Amount: 4999, Currency: "USD"},
	}
	err := svc.ProcessCompletedPayment(context.Background(), p, nil)
	require.ErrorIs(t, err, ErrMissingMetadata)
}
