package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metabolixmd/telehealth-api/internal/domain"
	"github.com/metabolixmd/telehealth-api/internal/models"
	"github.com/metabolixmd/telehealth-api/internal/observability"
	"github.com/metabolixmd/telehealth-api/internal/provider"
	"github.com/metabolixmd/telehealth-api/internal/repository"
	"github.com/metabolixmd/telehealth-api/internal/webhook"
	"go.uber.org/zap"
)

// IdempotencyGuard deduplicates provider payment deliveries ahead of the
// database's unique index.
type IdempotencyGuard interface {
	AlreadyProcessed(ctx context.Context, providerPaymentID string) (*models.Payment, bool, error)
	MarkProcessed(ctx context.Context, providerPaymentID string)
}

// PaymentService reconciles completed provider payments against local orders.
type PaymentService struct {
	store    Store
	guard    IdempotencyGuard
	resolver *MetadataResolver
	notifier *Notifier
	now      func() time.Time
}

func NewPaymentService(store Store, guard IdempotencyGuard, resolver *MetadataResolver, notifier *Notifier) *PaymentService {
	return &PaymentService{
		store:    store,
		guard:    guard,
		resolver: resolver,
		notifier: notifier,
		now:      time.Now,
	}
}

// ProcessCompletedPayment runs the full reconciliation for one completed
// provider payment: resolve metadata, deduplicate, validate against the
// order, then atomically record the payment and settle the order.
//
// ErrDuplicatePayment is success-shaped; every other error leaves the
// database untouched.
func (s *PaymentService) ProcessCompletedPayment(ctx context.Context, p *webhook.Payment, hint *provider.OrderMetadata) error {
	orderID, userID, err := s.resolver.Resolve(ctx, p, hint)
	if err != nil {
		return fmt.Errorf("payment %s: %w", p.ID, err)
	}

	if _, dup, err := s.guard.AlreadyProcessed(ctx, p.ID); err != nil {
		return err
	} else if dup {
		observability.IncrementDuplicateDelivery("guard")
		return fmt.Errorf("payment %s: %w", p.ID, ErrDuplicatePayment)
	}

	order, user, err := s.loadOrderAndUser(ctx, orderID, userID)
	if err != nil {
		return err
	}

	reported := domain.FromCents(p.AmountMoney.Amount)
	expected := order.ExpectedCharge()
	if !domain.AmountsMatch(reported, expected) {
		return fmt.Errorf("payment %s: order %s: reported %s, expected %s: %w",
			p.ID, order.ID, reported, expected, ErrAmountMismatch)
	}

	payment := &models.Payment{
		ID:                uuid.New(),
		UserID:            user.ID,
		OrderID:           order.ID,
		ProviderPaymentID: p.ID,
		Amount:            reported,
		Currency:          p.AmountMoney.Currency,
		Customer: models.Customer{
			ID:    p.CustomerID,
			Email: p.BuyerEmail,
		},
		Status:    domain.PaymentStatusPaid,
		CreatedAt: s.now(),
	}

	nextStatus := order.Status
	if domain.CanTransitionOrderStatus(order.Status, domain.OrderStatusPlaced) {
		nextStatus = domain.OrderStatusPlaced
	}

	err = s.store.RunInTx(ctx, func(q repository.Tx) error {
		if err := q.InsertPayment(ctx, payment); err != nil {
			return err
		}
		rows, err := q.MarkOrderPaid(ctx, repository.MarkOrderPaidParams{
			OrderID:       order.ID,
			PaymentID:     payment.ID,
			Status:        nextStatus,
			PaymentStatus: domain.PaymentStatusPaid,
			PaymentDate:   payment.CreatedAt,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			// A concurrent delivery settled the order first; roll back
			// the payment insert too.
			return fmt.Errorf("order %s: %w", order.ID, ErrDuplicatePayment)
		}
		return q.InsertAuditLog(ctx, paymentAudit(payment, order.PaymentStatus, domain.PaymentStatusPaid))
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) || errors.Is(err, ErrDuplicatePayment) {
			observability.IncrementDuplicateDelivery("database")
			return fmt.Errorf("payment %s: %w", p.ID, ErrDuplicatePayment)
		}
		return fmt.Errorf("payment %s: %w", p.ID, err)
	}

	s.guard.MarkProcessed(ctx, p.ID)
	observability.IncrementPaymentRecorded()

	zap.L().Info("payment reconciled",
		zap.String("provider_payment_id", p.ID),
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("amount", reported.StringFixed(2)),
		zap.String("currency", payment.Currency))

	if s.notifier != nil {
		s.notifier.PaymentConfirmed(ctx, user, order, payment)
	}
	return nil
}

// loadOrderAndUser fetches both records concurrently; the transaction has
// not started yet, so the queries may run in parallel.
func (s *PaymentService) loadOrderAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, *models.User, error) {
	var (
		wg       sync.WaitGroup
		order    *models.Order
		user     *models.User
		orderErr error
		userErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		order, orderErr = s.store.FindOrderByID(ctx, orderID)
	}()
	go func() {
		defer wg.Done()
		user, userErr = s.store.FindUserByID(ctx, userID)
	}()
	wg.Wait()

	if orderErr != nil {
		if errors.Is(orderErr, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
		}
		return nil, nil, orderErr
	}
	if userErr != nil {
		if errors.Is(userErr, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
		}
		return nil, nil, userErr
	}
	return order, user, nil
}
